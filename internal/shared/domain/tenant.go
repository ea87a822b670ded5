package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTenantID is returned when a tenant identifier cannot be parsed.
var ErrInvalidTenantID = errors.New("invalid tenant id")

// TenantID identifies the isolation boundary all workflow data is partitioned by.
type TenantID struct {
	value uuid.UUID
}

// NewTenantID wraps an existing UUID.
func NewTenantID(id uuid.UUID) TenantID {
	return TenantID{value: id}
}

// ParseTenantID parses the canonical string form of a tenant id.
func ParseTenantID(s string) (TenantID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return TenantID{}, fmt.Errorf("%w: %q", ErrInvalidTenantID, s)
	}
	return TenantID{value: id}, nil
}

// MustParseTenantID is ParseTenantID for tests and fixtures.
func MustParseTenantID(s string) TenantID {
	id, err := ParseTenantID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (t TenantID) UUID() uuid.UUID { return t.value }
func (t TenantID) String() string  { return t.value.String() }
func (t TenantID) IsZero() bool    { return t.value == uuid.Nil }
