package domain

import (
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

// Matrix maps every status id to its outgoing edges.
// An empty list means the status is permissive.
type Matrix map[uuid.UUID][]uuid.UUID

// BuildMatrix collects the edges of statuses.
func BuildMatrix(statuses []*Status) Matrix {
	m := make(Matrix, len(statuses))
	for _, s := range statuses {
		m[s.ID()] = s.AllowedTransitions()
	}
	return m
}

// IsAllowed applies the permissive-mode rule to the matrix.
func (m Matrix) IsAllowed(from, to uuid.UUID) bool {
	if from == to {
		return false
	}
	targets, ok := m[from]
	if !ok {
		return false
	}
	if len(targets) == 0 {
		return true
	}
	for _, id := range targets {
		if id == to {
			return true
		}
	}
	return false
}

// Transition is a task status move that has passed the workflow check.
// The zero value is unchecked and is refused by Task.ChangeStatus.
type Transition struct {
	tenantID   sharedDomain.TenantID
	fromID     uuid.UUID
	toID       uuid.UUID
	toCategory Category
	checked    bool
}

// CheckTransition validates a move from one status to another.
// from is nil when the task has no status yet, and any target is accepted.
func CheckTransition(from, to *Status) (Transition, error) {
	if to == nil {
		return Transition{}, NewNotFoundError("Status", uuid.Nil)
	}
	if to.IsDeleted() {
		return Transition{}, NewNotFoundError("Status", to.ID())
	}

	t := Transition{
		tenantID:   to.TenantID(),
		toID:       to.ID(),
		toCategory: to.Category(),
		checked:    true,
	}
	if from == nil {
		return t, nil
	}
	if from.TenantID() != to.TenantID() {
		return Transition{}, NewNotFoundError("Status", to.ID())
	}

	t.fromID = from.ID()
	if from.ID() == to.ID() {
		return t, nil
	}
	if !from.Allows(to.ID()) {
		return Transition{}, &TransitionNotAllowedError{
			From:   displayName(from),
			To:     displayName(to),
			FromID: from.ID(),
			ToID:   to.ID(),
		}
	}
	return t, nil
}

func displayName(s *Status) string {
	if s == nil || s.Name() == "" {
		return "Unknown"
	}
	return s.Name()
}

func (t Transition) TenantID() sharedDomain.TenantID { return t.tenantID }
func (t Transition) FromID() uuid.UUID               { return t.fromID }
func (t Transition) ToID() uuid.UUID                 { return t.toID }
func (t Transition) ToCategory() Category            { return t.toCategory }
func (t Transition) IsChecked() bool                 { return t.checked }

// IsNoop reports whether the task already sits in the target status.
func (t Transition) IsNoop() bool { return t.checked && t.fromID == t.toID }
