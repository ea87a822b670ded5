package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// RoutingKeyTenantProvisioned is published by the identity service when a tenant is created.
const RoutingKeyTenantProvisioned = "identity.tenant.provisioned"

// TenantSeeder provisions the starter workflow of a tenant.
type TenantSeeder interface {
	Seed(ctx context.Context, scope sharedApplication.Scope) (bool, error)
}

// TenantProvisionedPayload is the payload of identity.tenant.provisioned.
type TenantProvisionedPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	OwnerID  uuid.UUID `json:"owner_id"`
}

// TenantProvisionedConsumer seeds default statuses for newly provisioned tenants.
type TenantProvisionedConsumer struct {
	seeder TenantSeeder
	logger *slog.Logger
}

// NewTenantProvisionedConsumer creates a TenantProvisionedConsumer.
func NewTenantProvisionedConsumer(seeder TenantSeeder, logger *slog.Logger) *TenantProvisionedConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantProvisionedConsumer{seeder: seeder, logger: logger}
}

// EventTypes returns the event types this consumer handles.
func (c *TenantProvisionedConsumer) EventTypes() []string {
	return []string{RoutingKeyTenantProvisioned}
}

// Handle seeds the tenant named by the envelope, or by the payload when the
// envelope carries none. Malformed events are logged and dropped.
func (c *TenantProvisionedConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload TenantProvisionedPayload
	if len(event.Payload) > 0 {
		if err := event.DecodePayload(&payload); err != nil {
			c.logger.ErrorContext(ctx, "failed to decode tenant provisioned payload",
				"event_id", event.EventID,
				"error", err,
			)
			return nil
		}
	}

	tenantUUID := event.TenantID
	if tenantUUID == uuid.Nil {
		tenantUUID = payload.TenantID
	}
	if tenantUUID == uuid.Nil {
		c.logger.WarnContext(ctx, "tenant provisioned event without tenant id",
			"event_id", event.EventID,
		)
		return nil
	}

	actorID := event.Metadata.ActorID
	if actorID == uuid.Nil {
		actorID = payload.OwnerID
	}
	scope := sharedApplication.Scope{
		TenantID:      sharedDomain.NewTenantID(tenantUUID),
		ActorID:       actorID,
		CorrelationID: event.Metadata.CorrelationID,
	}

	seeded, err := c.seeder.Seed(ctx, scope)
	if err != nil {
		return fmt.Errorf("seed tenant %s: %w", tenantUUID, err)
	}
	c.logger.InfoContext(ctx, "handled tenant provisioned",
		"tenant_id", tenantUUID,
		"seeded", seeded,
	)
	return nil
}
