package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

// Repository defines the interface for task persistence.
type Repository interface {
	// Save inserts or updates a task scoped by (id, tenant).
	Save(ctx context.Context, task *Task) error

	// FindByID returns a live task or a not-found error.
	FindByID(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID) (*Task, error)

	// List returns live tasks, optionally only those in statusID.
	List(ctx context.Context, tenantID sharedDomain.TenantID, statusID uuid.UUID) ([]*Task, error)
}
