package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity represents a tenant-owned domain object with identity.
type Entity interface {
	ID() uuid.UUID
	TenantID() TenantID
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

// BaseEntity carries identity, ownership and timestamps.
type BaseEntity struct {
	id        uuid.UUID
	tenantID  TenantID
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity creates an entity owned by tenantID with a generated ID.
func NewBaseEntity(tenantID TenantID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		id:        uuid.New(),
		tenantID:  tenantID,
		createdAt: now,
		updatedAt: now,
	}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id uuid.UUID, tenantID TenantID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{
		id:        id,
		tenantID:  tenantID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) TenantID() TenantID   { return e.tenantID }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// Touch updates the updatedAt timestamp.
func (e *BaseEntity) Touch() {
	e.updatedAt = time.Now().UTC()
}

// BelongsTo reports whether the entity is owned by tenantID.
func (e BaseEntity) BelongsTo(tenantID TenantID) bool {
	return e.tenantID == tenantID
}
