package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

func ptr[T any](v T) *T { return &v }

func TestLifecycle_CreateFirstStatusBecomesDefault(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, "To Do")
	second := f.create(t, "Doing")

	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, "to-do", first.Slug)
	assert.Equal(t, "#6b7280", first.Color)
	assert.Equal(t, "circle", first.Icon)
	assert.Equal(t, "open", first.Category)
	assert.Equal(t, []string{domain.RoutingKeyStatusCreated, domain.RoutingKeyStatusCreated}, f.routingKeys(t))
	assert.Equal(t, int64(2), f.metrics.GetCounter(observability.MetricStatusCreated))
	assertWorkflowInvariants(t, f)
}

func TestLifecycle_CreateAsDefaultMovesFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.create(t, "To Do")

	second := f.create(t, "Triage", func(in *services.CreateStatusInput) { in.IsDefault = true })

	assert.True(t, second.IsDefault)
	def, err := f.lifecycle.GetDefault(ctx, f.scope)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)
	got, err := f.lifecycle.Get(ctx, f.scope, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
	assert.Contains(t, f.routingKeys(t), domain.RoutingKeyDefaultChanged)
	assertWorkflowInvariants(t, f)
}

func TestLifecycle_CreateAtPositionShiftsOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "A")
	f.create(t, "B")

	f.create(t, "Inserted", func(in *services.CreateStatusInput) { in.Order = ptr(1) })
	f.create(t, "Clamped", func(in *services.CreateStatusInput) { in.Order = ptr(99) })

	list, err := f.lifecycle.List(ctx, f.scope)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Inserted", "B", "Clamped"}, names(list))
	assertWorkflowInvariants(t, f)
}

func TestLifecycle_CreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "Review")

	_, err := f.lifecycle.Create(ctx, f.scope, services.CreateStatusInput{Name: "  review "})

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Message, "review")
}

func TestLifecycle_CreateSlugRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	explicit := f.create(t, "Ready", func(in *services.CreateStatusInput) { in.Slug = "next" })
	suffixed := f.create(t, "Up Next", func(in *services.CreateStatusInput) { in.Slug = "next" })
	derived := f.create(t, "Next")

	assert.Equal(t, "next", explicit.Slug)
	assert.Equal(t, "next-1", suffixed.Slug)
	assert.Equal(t, "next-2", derived.Slug)

	_, err := f.lifecycle.Create(ctx, f.scope, services.CreateStatusInput{Name: "!!!"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.lifecycle.Create(ctx, f.scope, services.CreateStatusInput{Name: "Bad", Slug: "Not A Slug"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLifecycle_CreateTakenMaxLengthSlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	long := strings.Repeat("a", domain.MaxSlugLength)

	first := f.create(t, "First", func(in *services.CreateStatusInput) { in.Slug = long })
	second := f.create(t, "Second", func(in *services.CreateStatusInput) { in.Slug = long })

	assert.Equal(t, long, first.Slug)
	assert.Equal(t, strings.Repeat("a", domain.MaxSlugLength-2)+"-1", second.Slug)
	assert.Len(t, second.Slug, domain.MaxSlugLength)

	_, err := f.lifecycle.Create(ctx, f.scope, services.CreateStatusInput{Name: "Too Long", Slug: long + "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "at most")
}

func TestLifecycle_CreateAppendsAtNextOrder(t *testing.T) {
	f := newFixture(t)
	f.create(t, "One")
	f.create(t, "Two")
	third := f.create(t, "Three")
	assert.Equal(t, 2, third.Order)

	far := f.create(t, "Far", func(in *services.CreateStatusInput) { in.Order = ptr(50) })
	assert.Equal(t, 3, far.Order, "out of range positions are clamped to the end")
}

func TestLifecycle_CreateValidatesFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		input services.CreateStatusInput
		field string
	}{
		{"empty name", services.CreateStatusInput{Name: "  "}, "name"},
		{"bad color", services.CreateStatusInput{Name: "X", Color: "blue"}, "color"},
		{"bad icon", services.CreateStatusInput{Name: "X", Icon: "dragon"}, "icon"},
		{"bad category", services.CreateStatusInput{Name: "X", Category: "finished"}, "category"},
		{"unknown transition target", services.CreateStatusInput{Name: "X", AllowedTransitions: []uuid.UUID{uuid.New()}}, "allowedTransitions"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.lifecycle.Create(ctx, f.scope, tc.input)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	count, err := f.repo.Count(ctx, f.scope.TenantID)
	require.NoError(t, err)
	assert.Zero(t, count, "validation failures write nothing")
	assert.Empty(t, f.routingKeys(t))
}

func TestLifecycle_CreateWithTransitions(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A")

	b := f.create(t, "B", func(in *services.CreateStatusInput) {
		in.AllowedTransitions = []uuid.UUID{a.ID, a.ID}
	})

	assert.Equal(t, []uuid.UUID{a.ID}, b.AllowedTransitions)
}

func TestLifecycle_RequiresTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.List(context.Background(), sharedApplication.Scope{})

	assert.ErrorIs(t, err, sharedApplication.ErrMissingTenant)
}

func TestLifecycle_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	todo := f.create(t, "To Do")
	doing := f.create(t, "Doing")

	t.Run("rename regenerates slug", func(t *testing.T) {
		got, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{Name: ptr("In Progress")})
		require.NoError(t, err)
		assert.Equal(t, "In Progress", got.Name)
		assert.Equal(t, "in-progress", got.Slug)
	})

	t.Run("rename to taken name conflicts", func(t *testing.T) {
		_, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{Name: ptr("TO DO")})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("changing only case of own name is allowed", func(t *testing.T) {
		got, err := f.lifecycle.Update(ctx, f.scope, todo.ID, services.UpdateStatusInput{Name: ptr("To do")})
		require.NoError(t, err)
		assert.Equal(t, "To do", got.Name)
		assert.Equal(t, "to-do", got.Slug)
	})

	t.Run("explicit taken slug gets a suffix", func(t *testing.T) {
		got, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{Slug: ptr("to-do")})
		require.NoError(t, err)
		assert.Equal(t, "to-do-1", got.Slug)
	})

	t.Run("appearance and category", func(t *testing.T) {
		got, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{
			Color:    ptr("#3b82f6"),
			Icon:     ptr("loader"),
			Category: ptr("in_progress"),
		})
		require.NoError(t, err)
		assert.Equal(t, "#3b82f6", got.Color)
		assert.Equal(t, "loader", got.Icon)
		assert.Equal(t, "in_progress", got.Category)
	})

	t.Run("invalid color writes nothing", func(t *testing.T) {
		_, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{
			Name:  ptr("Renamed"),
			Color: ptr("nope"),
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
		got, err := f.lifecycle.Get(ctx, f.scope, doing.ID)
		require.NoError(t, err)
		assert.Equal(t, "In Progress", got.Name)
	})

	t.Run("set default through update", func(t *testing.T) {
		got, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{IsDefault: ptr(true)})
		require.NoError(t, err)
		assert.True(t, got.IsDefault)
		assertWorkflowInvariants(t, f)
	})

	t.Run("clearing the current default is rejected", func(t *testing.T) {
		_, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{IsDefault: ptr(false)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		_, err := f.lifecycle.Update(ctx, f.scope, doing.ID, services.UpdateStatusInput{
			AllowedTransitions: &[]uuid.UUID{doing.ID},
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.lifecycle.Update(ctx, f.scope, uuid.New(), services.UpdateStatusInput{Name: ptr("X")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLifecycle_UpdateWithoutChangesEmitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.create(t, "To Do")
	before := len(f.routingKeys(t))

	got, err := f.lifecycle.Update(ctx, f.scope, s.ID, services.UpdateStatusInput{Name: ptr("To Do")})

	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Len(t, f.routingKeys(t), before)
}

// Deleting the default hands the flag to the first remaining status,
// compacts order and strips the deleted id from other edge sets.
func TestLifecycle_DeleteDefaultStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.abc(t)
	_, err := f.transitions.SetTransitions(ctx, f.scope, c.ID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)

	require.NoError(t, f.lifecycle.Delete(ctx, f.scope, a.ID))

	list, err := f.lifecycle.List(ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, 0, list[0].Order)
	assert.Equal(t, 1, list[1].Order)
	assert.Equal(t, []uuid.UUID{b.ID}, list[1].AllowedTransitions)
	assertWorkflowInvariants(t, f)

	keys := f.routingKeys(t)
	assert.Contains(t, keys, domain.RoutingKeyStatusDeleted)
	assert.Contains(t, keys, domain.RoutingKeyDefaultChanged)

	_, err = f.lifecycle.Get(ctx, f.scope, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.lifecycle.Delete(ctx, f.scope, a.ID), domain.ErrNotFound, "deleting twice")
}

func TestLifecycle_DeleteStatusInUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, c := f.abc(t)
	f.tasks.placeTask(c.ID)

	err := f.lifecycle.Delete(ctx, f.scope, c.ID)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Message, "1 task(s)")
	_, err = f.lifecycle.Get(ctx, f.scope, c.ID)
	assert.NoError(t, err)
}

func TestLifecycle_DeleteOnlyStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	only := f.create(t, "Only")

	err := f.lifecycle.Delete(ctx, f.scope, only.ID)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLifecycle_Reorder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.abc(t)

	t.Run("partial set is rejected with missing ids", func(t *testing.T) {
		_, err := f.lifecycle.Reorder(ctx, f.scope, []uuid.UUID{b.ID})

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields["orderedIds"], 1)
		assert.Contains(t, verr.Fields["orderedIds"][0], "missing ids")
		assert.Contains(t, verr.Fields["orderedIds"][0], a.ID.String())
		assert.Contains(t, verr.Fields["orderedIds"][0], c.ID.String())
	})

	t.Run("duplicates and unknown ids are rejected", func(t *testing.T) {
		_, err := f.lifecycle.Reorder(ctx, f.scope, []uuid.UUID{a.ID, b.ID, c.ID, c.ID, uuid.New()})

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields["orderedIds"], 2)
	})

	t.Run("full permutation", func(t *testing.T) {
		list, err := f.lifecycle.Reorder(ctx, f.scope, []uuid.UUID{c.ID, a.ID, b.ID})

		require.NoError(t, err)
		assert.Equal(t, []string{"C", "A", "B"}, names(list))
		assert.Contains(t, f.routingKeys(t), domain.RoutingKeyStatusesReordered)
		assertWorkflowInvariants(t, f)
	})
}

func TestLifecycle_SetDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, _ := f.abc(t)

	got, err := f.lifecycle.SetDefault(ctx, f.scope, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
	assertWorkflowInvariants(t, f)

	before := len(f.routingKeys(t))
	got, err = f.lifecycle.SetDefault(ctx, f.scope, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
	assert.Len(t, f.routingKeys(t), before, "idempotent")

	oldDefault, err := f.lifecycle.Get(ctx, f.scope, a.ID)
	require.NoError(t, err)
	assert.False(t, oldDefault.IsDefault)

	_, err = f.lifecycle.SetDefault(ctx, f.scope, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycle_GetDefaultEmptyTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.GetDefault(context.Background(), f.scope)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// A long sequence of mutations keeps one default and dense order throughout.
func TestLifecycle_InvariantsHoldAcrossSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids := make([]uuid.UUID, 0, 6)
	for _, name := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		ids = append(ids, f.create(t, name).ID)
		assertWorkflowInvariants(t, f)
	}

	_, err := f.lifecycle.SetDefault(ctx, f.scope, ids[3])
	require.NoError(t, err)
	assertWorkflowInvariants(t, f)

	require.NoError(t, f.lifecycle.Delete(ctx, f.scope, ids[3]))
	assertWorkflowInvariants(t, f)

	require.NoError(t, f.lifecycle.Delete(ctx, f.scope, ids[0]))
	assertWorkflowInvariants(t, f)

	_, err = f.lifecycle.Reorder(ctx, f.scope, []uuid.UUID{ids[5], ids[4], ids[2], ids[1]})
	require.NoError(t, err)
	assertWorkflowInvariants(t, f)

	f.create(t, "Seven", func(in *services.CreateStatusInput) {
		in.Order = ptr(0)
		in.IsDefault = true
	})
	assertWorkflowInvariants(t, f)
}
