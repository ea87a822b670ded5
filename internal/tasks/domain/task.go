package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	workflowDomain "github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
)

var (
	ErrTaskEmptyTitle      = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong    = errors.New("task title cannot exceed 200 characters")
	ErrUncheckedTransition = errors.New("status change was not checked against the workflow")
	ErrStaleTransition     = errors.New("status change was checked against a different current status")
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// Task is a unit of work placed in one of its tenant's statuses.
type Task struct {
	sharedDomain.BaseAggregateRoot
	title       string
	statusID    uuid.UUID
	completedAt *time.Time
}

// NewTask creates a task in the status chosen by initial.
func NewTask(tenantID sharedDomain.TenantID, title string, initial workflowDomain.Transition) (*Task, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if !initial.IsChecked() {
		return nil, ErrUncheckedTransition
	}
	if initial.TenantID() != tenantID {
		return nil, workflowDomain.NewNotFoundError("Status", initial.ToID())
	}

	task := &Task{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(tenantID),
		title:             title,
		statusID:          initial.ToID(),
	}
	task.applyCompletion(initial.ToCategory())
	task.AddDomainEvent(NewTaskCreated(task))
	return task, nil
}

// TaskState is the persisted form of a task.
type TaskState struct {
	ID          uuid.UUID
	TenantID    sharedDomain.TenantID
	Title       string
	StatusID    uuid.UUID
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RehydrateTask recreates a task from persisted state.
func RehydrateTask(state TaskState) *Task {
	return &Task{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(state.ID, state.TenantID, state.CreatedAt, state.UpdatedAt),
		),
		title:       state.Title,
		statusID:    state.StatusID,
		completedAt: state.CompletedAt,
	}
}

func (t *Task) Title() string           { return t.title }
func (t *Task) StatusID() uuid.UUID     { return t.statusID }
func (t *Task) HasStatus() bool         { return t.statusID != uuid.Nil }
func (t *Task) CompletedAt() *time.Time { return t.completedAt }
func (t *Task) IsCompleted() bool       { return t.completedAt != nil }

// Rename changes the title.
func (t *Task) Rename(title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	t.title = title
	t.Touch()
	return nil
}

// ChangeStatus moves the task along a checked transition. Completion follows
// the target category: closed sets completedAt, anything else clears it.
func (t *Task) ChangeStatus(tr workflowDomain.Transition) error {
	if !tr.IsChecked() {
		return ErrUncheckedTransition
	}
	if tr.TenantID() != t.TenantID() {
		return workflowDomain.NewNotFoundError("Status", tr.ToID())
	}
	if tr.FromID() != t.statusID {
		return ErrStaleTransition
	}
	if tr.IsNoop() {
		return nil
	}

	previous := t.statusID
	t.statusID = tr.ToID()
	t.applyCompletion(tr.ToCategory())
	t.Touch()
	t.AddDomainEvent(NewTaskStatusChanged(t, previous))
	return nil
}

func (t *Task) applyCompletion(category workflowDomain.Category) {
	if !category.MarksComplete() {
		t.completedAt = nil
		return
	}
	if t.completedAt == nil {
		now := time.Now().UTC()
		t.completedAt = &now
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTaskEmptyTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return "", ErrTaskTitleTooLong
	}
	return title, nil
}
