package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Task"

// Routing keys of task events.
const (
	RoutingKeyTaskCreated       = "tasks.task.created"
	RoutingKeyTaskStatusChanged = "tasks.task.status_changed"
)

// TaskCreated is emitted when a task is created.
type TaskCreated struct {
	sharedDomain.BaseEvent
	TaskID   uuid.UUID `json:"task_id"`
	Title    string    `json:"title"`
	StatusID uuid.UUID `json:"status_id"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task) *TaskCreated {
	return &TaskCreated{
		BaseEvent: sharedDomain.NewBaseEvent(t.TenantID(), t.ID(), aggregateType, RoutingKeyTaskCreated),
		TaskID:    t.ID(),
		Title:     t.Title(),
		StatusID:  t.StatusID(),
	}
}

// TaskStatusChanged is emitted when a task moves to another status.
type TaskStatusChanged struct {
	sharedDomain.BaseEvent
	TaskID       uuid.UUID  `json:"task_id"`
	FromStatusID uuid.UUID  `json:"from_status_id"`
	ToStatusID   uuid.UUID  `json:"to_status_id"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewTaskStatusChanged creates a TaskStatusChanged event.
func NewTaskStatusChanged(t *Task, from uuid.UUID) *TaskStatusChanged {
	return &TaskStatusChanged{
		BaseEvent:    sharedDomain.NewBaseEvent(t.TenantID(), t.ID(), aggregateType, RoutingKeyTaskStatusChanged),
		TaskID:       t.ID(),
		FromStatusID: from,
		ToStatusID:   t.StatusID(),
		CompletedAt:  t.CompletedAt(),
	}
}
