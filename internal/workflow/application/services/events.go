package services

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
)

// saveEvents stamps events with scope metadata and writes them to the outbox
// on the executor carried by ctx.
func saveEvents(ctx context.Context, repo outbox.Repository, scope sharedApplication.Scope, events ...sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(scope))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}
