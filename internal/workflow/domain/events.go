package domain

import (
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	statusAggregateType   = "Status"
	workflowAggregateType = "Workflow"
)

// Routing keys of workflow events.
const (
	RoutingKeyStatusCreated      = "workflow.status.created"
	RoutingKeyStatusUpdated      = "workflow.status.updated"
	RoutingKeyStatusDeleted      = "workflow.status.deleted"
	RoutingKeyStatusesReordered  = "workflow.status.reordered"
	RoutingKeyDefaultChanged     = "workflow.status.default_changed"
	RoutingKeyTransitionsUpdated = "workflow.status.transitions_updated"
)

// StatusCreated is emitted when a status is added to a workflow.
type StatusCreated struct {
	sharedDomain.BaseEvent
	StatusID  uuid.UUID `json:"status_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Order     int       `json:"order"`
	IsDefault bool      `json:"is_default"`
}

// NewStatusCreated creates a StatusCreated event.
func NewStatusCreated(s *Status) *StatusCreated {
	return &StatusCreated{
		BaseEvent: sharedDomain.NewBaseEvent(s.TenantID(), s.ID(), statusAggregateType, RoutingKeyStatusCreated),
		StatusID:  s.ID(),
		Name:      s.Name(),
		Slug:      s.Slug(),
		Category:  string(s.Category()),
		Order:     s.Order(),
		IsDefault: s.IsDefault(),
	}
}

// StatusUpdated is emitted when status attributes change.
type StatusUpdated struct {
	sharedDomain.BaseEvent
	StatusID uuid.UUID `json:"status_id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Category string    `json:"category"`
	Changes  []string  `json:"changes"`
}

// NewStatusUpdated creates a StatusUpdated event listing the changed fields.
func NewStatusUpdated(s *Status, changes []string) *StatusUpdated {
	return &StatusUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(s.TenantID(), s.ID(), statusAggregateType, RoutingKeyStatusUpdated),
		StatusID:  s.ID(),
		Name:      s.Name(),
		Slug:      s.Slug(),
		Category:  string(s.Category()),
		Changes:   changes,
	}
}

// StatusDeleted is emitted when a status is soft-deleted.
type StatusDeleted struct {
	sharedDomain.BaseEvent
	StatusID     uuid.UUID  `json:"status_id"`
	Name         string     `json:"name"`
	NewDefaultID *uuid.UUID `json:"new_default_id,omitempty"`
}

// NewStatusDeleted creates a StatusDeleted event. newDefault is set when the
// deleted status held the default flag.
func NewStatusDeleted(s *Status, newDefault *Status) *StatusDeleted {
	e := &StatusDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(s.TenantID(), s.ID(), statusAggregateType, RoutingKeyStatusDeleted),
		StatusID:  s.ID(),
		Name:      s.Name(),
	}
	if newDefault != nil {
		id := newDefault.ID()
		e.NewDefaultID = &id
	}
	return e
}

// StatusesReordered is emitted when a tenant's board order changes.
type StatusesReordered struct {
	sharedDomain.BaseEvent
	StatusIDs []uuid.UUID `json:"status_ids"`
}

// NewStatusesReordered creates a StatusesReordered event.
func NewStatusesReordered(tenantID sharedDomain.TenantID, orderedIDs []uuid.UUID) *StatusesReordered {
	return &StatusesReordered{
		BaseEvent: sharedDomain.NewBaseEvent(tenantID, tenantID.UUID(), workflowAggregateType, RoutingKeyStatusesReordered),
		StatusIDs: orderedIDs,
	}
}

// DefaultStatusChanged is emitted when the default flag moves.
type DefaultStatusChanged struct {
	sharedDomain.BaseEvent
	StatusID         uuid.UUID  `json:"status_id"`
	PreviousStatusID *uuid.UUID `json:"previous_status_id,omitempty"`
}

// NewDefaultStatusChanged creates a DefaultStatusChanged event.
func NewDefaultStatusChanged(s *Status, previous *Status) *DefaultStatusChanged {
	e := &DefaultStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(s.TenantID(), s.ID(), statusAggregateType, RoutingKeyDefaultChanged),
		StatusID:  s.ID(),
	}
	if previous != nil {
		id := previous.ID()
		e.PreviousStatusID = &id
	}
	return e
}

// StatusTransitionsUpdated is emitted when a status's outgoing edges are replaced.
type StatusTransitionsUpdated struct {
	sharedDomain.BaseEvent
	StatusID           uuid.UUID   `json:"status_id"`
	AllowedTransitions []uuid.UUID `json:"allowed_transitions"`
}

// NewStatusTransitionsUpdated creates a StatusTransitionsUpdated event.
func NewStatusTransitionsUpdated(s *Status) *StatusTransitionsUpdated {
	return &StatusTransitionsUpdated{
		BaseEvent:          sharedDomain.NewBaseEvent(s.TenantID(), s.ID(), statusAggregateType, RoutingKeyTransitionsUpdated),
		StatusID:           s.ID(),
		AllowedTransitions: s.AllowedTransitions(),
	}
}
