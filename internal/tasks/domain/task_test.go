package domain

import (
	"strings"
	"testing"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	workflowDomain "github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workflowFixture struct {
	tenant sharedDomain.TenantID
	open   *workflowDomain.Status
	doing  *workflowDomain.Status
	done   *workflowDomain.Status
}

func newWorkflow(t *testing.T) workflowFixture {
	t.Helper()
	tenant := sharedDomain.NewTenantID(uuid.New())
	mk := func(name string, category workflowDomain.Category) *workflowDomain.Status {
		s, err := workflowDomain.NewStatus(tenant, workflowDomain.StatusParams{
			Name:     name,
			Slug:     workflowDomain.Slugify(name),
			Category: category,
		})
		require.NoError(t, err)
		return s
	}
	w := workflowFixture{
		tenant: tenant,
		open:   mk("Open", workflowDomain.CategoryOpen),
		doing:  mk("Doing", workflowDomain.CategoryInProgress),
		done:   mk("Done", workflowDomain.CategoryClosed),
	}
	require.NoError(t, w.open.SetTransitions([]uuid.UUID{w.doing.ID()}))
	return w
}

func mustCheck(t *testing.T, from, to *workflowDomain.Status) workflowDomain.Transition {
	t.Helper()
	tr, err := workflowDomain.CheckTransition(from, to)
	require.NoError(t, err)
	return tr
}

func TestNewTask(t *testing.T) {
	w := newWorkflow(t)

	task, err := NewTask(w.tenant, "  Write docs ", mustCheck(t, nil, w.open))

	require.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title())
	assert.Equal(t, w.open.ID(), task.StatusID())
	assert.True(t, task.HasStatus())
	assert.False(t, task.IsCompleted())

	events := task.DomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*TaskCreated)
	require.True(t, ok)
	assert.Equal(t, w.open.ID(), created.StatusID)
}

func TestNewTask_Invalid(t *testing.T) {
	w := newWorkflow(t)

	_, err := NewTask(w.tenant, "   ", mustCheck(t, nil, w.open))
	assert.ErrorIs(t, err, ErrTaskEmptyTitle)

	_, err = NewTask(w.tenant, strings.Repeat("x", MaxTitleLength+1), mustCheck(t, nil, w.open))
	assert.ErrorIs(t, err, ErrTaskTitleTooLong)

	_, err = NewTask(w.tenant, "Task", workflowDomain.Transition{})
	assert.ErrorIs(t, err, ErrUncheckedTransition)

	_, err = NewTask(sharedDomain.NewTenantID(uuid.New()), "Task", mustCheck(t, nil, w.open))
	assert.ErrorIs(t, err, workflowDomain.ErrNotFound)
}

func TestTask_ChangeStatus(t *testing.T) {
	w := newWorkflow(t)
	task, err := NewTask(w.tenant, "Ship", mustCheck(t, nil, w.open))
	require.NoError(t, err)
	task.ClearDomainEvents()

	require.NoError(t, task.ChangeStatus(mustCheck(t, w.open, w.doing)))
	assert.Equal(t, w.doing.ID(), task.StatusID())
	assert.False(t, task.IsCompleted())

	require.NoError(t, task.ChangeStatus(mustCheck(t, w.doing, w.done)))
	require.True(t, task.IsCompleted())
	completedAt := *task.CompletedAt()

	require.NoError(t, task.ChangeStatus(mustCheck(t, w.done, w.doing)))
	assert.Nil(t, task.CompletedAt(), "reopening clears completion")

	events := task.PullDomainEvents()
	require.Len(t, events, 3)
	changed, ok := events[1].(*TaskStatusChanged)
	require.True(t, ok)
	assert.Equal(t, w.doing.ID(), changed.FromStatusID)
	assert.Equal(t, w.done.ID(), changed.ToStatusID)
	require.NotNil(t, changed.CompletedAt)
	assert.Equal(t, completedAt, *changed.CompletedAt)
}

func TestTask_ChangeStatusGuards(t *testing.T) {
	w := newWorkflow(t)
	task, err := NewTask(w.tenant, "Ship", mustCheck(t, nil, w.open))
	require.NoError(t, err)

	t.Run("unchecked transition", func(t *testing.T) {
		assert.ErrorIs(t, task.ChangeStatus(workflowDomain.Transition{}), ErrUncheckedTransition)
	})

	t.Run("transition checked from another status", func(t *testing.T) {
		assert.ErrorIs(t, task.ChangeStatus(mustCheck(t, w.doing, w.done)), ErrStaleTransition)
		assert.Equal(t, w.open.ID(), task.StatusID())
	})

	t.Run("no-op leaves task untouched", func(t *testing.T) {
		task.ClearDomainEvents()
		require.NoError(t, task.ChangeStatus(mustCheck(t, w.open, w.open)))
		assert.Empty(t, task.DomainEvents())
	})
}

func TestRehydrateTask(t *testing.T) {
	w := newWorkflow(t)
	task, err := NewTask(w.tenant, "Ship", mustCheck(t, nil, w.done))
	require.NoError(t, err)

	again := RehydrateTask(TaskState{
		ID:          task.ID(),
		TenantID:    task.TenantID(),
		Title:       task.Title(),
		StatusID:    task.StatusID(),
		CompletedAt: task.CompletedAt(),
		CreatedAt:   task.CreatedAt(),
		UpdatedAt:   task.UpdatedAt(),
	})

	assert.Equal(t, task.ID(), again.ID())
	assert.True(t, again.IsCompleted())
	assert.Empty(t, again.DomainEvents())
}
