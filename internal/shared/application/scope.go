package application

import (
	"errors"

	"github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

// ErrMissingTenant is returned when a call arrives without a tenant.
var ErrMissingTenant = errors.New("tenant is required")

// Scope is the explicit request context every service call receives.
// Tenant isolation is enforced by passing it, never by reading ambient state.
type Scope struct {
	TenantID      domain.TenantID
	ActorID       uuid.UUID
	CorrelationID uuid.UUID
}

// NewScope creates a scope for tenantID acting as actorID with a fresh correlation id.
func NewScope(tenantID domain.TenantID, actorID uuid.UUID) Scope {
	return Scope{
		TenantID:      tenantID,
		ActorID:       actorID,
		CorrelationID: uuid.New(),
	}
}

// Validate reports whether the scope carries a tenant.
func (s Scope) Validate() error {
	if s.TenantID.IsZero() {
		return ErrMissingTenant
	}
	return nil
}
