package domain

import (
	"context"
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

// StatusRepository persists statuses. Every method is scoped by tenant and
// ignores soft-deleted rows unless stated otherwise.
type StatusRepository interface {
	// List returns the live statuses of a tenant ordered by position.
	List(ctx context.Context, tenantID sharedDomain.TenantID) ([]*Status, error)

	// FindByID returns a live status or a *NotFoundError.
	FindByID(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID) (*Status, error)

	// FindByIDs returns the live statuses among ids. Unknown ids are skipped.
	FindByIDs(ctx context.Context, tenantID sharedDomain.TenantID, ids []uuid.UUID) ([]*Status, error)

	// FindDefault returns the flagged default status or a *NotFoundError.
	FindDefault(ctx context.Context, tenantID sharedDomain.TenantID) (*Status, error)

	// NameTaken reports whether another live status uses name, ignoring case.
	NameTaken(ctx context.Context, tenantID sharedDomain.TenantID, name string, excludeID uuid.UUID) (bool, error)

	// Count returns the number of live statuses.
	Count(ctx context.Context, tenantID sharedDomain.TenantID) (int, error)

	// NextOrder returns max(order)+1, or 0 for an empty workflow.
	NextOrder(ctx context.Context, tenantID sharedDomain.TenantID) (int, error)

	// UniqueSlug returns base, or base-1, base-2 and so on until free.
	UniqueSlug(ctx context.Context, tenantID sharedDomain.TenantID, base string, excludeID uuid.UUID) (string, error)

	// Insert stores a new status.
	Insert(ctx context.Context, status *Status) error

	// Update writes a status scoped by (id, tenant).
	Update(ctx context.Context, status *Status) error

	// ClearDefault unsets the default flag on every status except exceptID.
	ClearDefault(ctx context.Context, tenantID sharedDomain.TenantID, exceptID uuid.UUID) error

	// SoftDelete marks a live status deleted.
	SoftDelete(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID, at time.Time) error

	// BulkReorder assigns order = index for each id.
	BulkReorder(ctx context.Context, tenantID sharedDomain.TenantID, orderedIDs []uuid.UUID) error
}

// TaskUsage exposes the task facts the workflow engine depends on.
type TaskUsage interface {
	// CountByStatus returns how many live tasks reference statusID.
	CountByStatus(ctx context.Context, tenantID sharedDomain.TenantID, statusID uuid.UUID) (int, error)

	// CurrentStatus returns the status of a live task, and false when it has none.
	CurrentStatus(ctx context.Context, tenantID sharedDomain.TenantID, taskID uuid.UUID) (uuid.UUID, bool, error)
}
