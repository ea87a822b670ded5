package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

func TestTransition_IsAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.abc(t)

	tests := []struct {
		name     string
		from, to uuid.UUID
		want     bool
	}{
		{"explicit edge", a.ID, b.ID, true},
		{"missing edge", a.ID, c.ID, false},
		{"self", b.ID, b.ID, false},
		{"permissive source", c.ID, a.ID, true},
		{"permissive self", c.ID, c.ID, false},
		{"unknown source", uuid.New(), a.ID, false},
		{"unknown target", c.ID, uuid.New(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.transitions.IsAllowed(ctx, f.scope, tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTransition_PermissiveModeLaw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var ids []uuid.UUID
	for _, name := range []string{"P", "Q", "R", "S"} {
		ids = append(ids, f.create(t, name).ID)
	}

	for _, from := range ids {
		for _, to := range ids {
			allowed, err := f.transitions.IsAllowed(ctx, f.scope, from, to)
			require.NoError(t, err)
			assert.Equal(t, from != to, allowed)
		}
	}
}

func TestTransition_SetTransitionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A")
	b := f.create(t, "B")
	c := f.create(t, "C")

	_, err := f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{c.ID, b.ID, c.ID})
	require.NoError(t, err)

	m, err := f.transitions.Matrix(ctx, f.scope)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, m[a.ID])
	assert.Empty(t, m[b.ID])
	assert.Len(t, m, 3)
	assert.Contains(t, f.routingKeys(t), domain.RoutingKeyTransitionsUpdated)

	_, err = f.transitions.SetTransitions(ctx, f.scope, a.ID, nil)
	require.NoError(t, err)
	m, err = f.transitions.Matrix(ctx, f.scope)
	require.NoError(t, err)
	assert.Empty(t, m[a.ID], "clearing edges restores permissive mode")
}

func TestTransition_SetTransitionsRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A")
	b := f.create(t, "B")

	t.Run("self", func(t *testing.T) {
		_, err := f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{b.ID, a.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("foreign tenant target", func(t *testing.T) {
		otherTenant := sharedApplication.NewScope(sharedDomain.NewTenantID(uuid.New()), uuid.New())
		foreign, err := f.lifecycle.Create(ctx, otherTenant, services.CreateStatusInput{Name: "Foreign"})
		require.NoError(t, err)

		_, err = f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{foreign.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("deleted target", func(t *testing.T) {
		c := f.create(t, "C")
		require.NoError(t, f.lifecycle.Delete(ctx, f.scope, c.ID))

		_, err := f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{c.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := f.transitions.SetTransitions(ctx, f.scope, uuid.New(), []uuid.UUID{b.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	got, err := f.lifecycle.Get(ctx, f.scope, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AllowedTransitions)
}

func TestTransition_AvailableTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, _, c := f.abc(t)

	targets, err := f.transitions.AvailableTargets(ctx, f.scope, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(targets))

	targets, err = f.transitions.AvailableTargets(ctx, f.scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(targets), "permissive status offers all others")

	_, err = f.transitions.AvailableTargets(ctx, f.scope, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition_RemoveDanglingReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.abc(t)
	_, err := f.transitions.SetTransitions(ctx, f.scope, c.ID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)

	n, err := f.transitions.RemoveDanglingReferences(ctx, f.scope, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := f.transitions.Matrix(ctx, f.scope)
	require.NoError(t, err)
	assert.Empty(t, m[a.ID])
	assert.Equal(t, []uuid.UUID{a.ID}, m[c.ID])

	n, err = f.transitions.RemoveDanglingReferences(ctx, f.scope, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "safe to re-run")
}

func TestTransition_ValidateTaskTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.abc(t)

	t.Run("A to C is rejected with names", func(t *testing.T) {
		task := f.tasks.placeTask(a.ID)

		_, err := f.transitions.ValidateTaskTransition(ctx, f.scope, task, c.ID)

		var terr *domain.TransitionNotAllowedError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "A", terr.From)
		assert.Equal(t, "C", terr.To)
		assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricTransitionRejected))
	})

	t.Run("B to C is accepted", func(t *testing.T) {
		task := f.tasks.placeTask(b.ID)

		tr, err := f.transitions.ValidateTaskTransition(ctx, f.scope, task, c.ID)

		require.NoError(t, err)
		assert.True(t, tr.IsChecked())
		assert.Equal(t, domain.CategoryClosed, tr.ToCategory())
	})

	t.Run("unchanged status is a no-op", func(t *testing.T) {
		task := f.tasks.placeTask(a.ID)

		tr, err := f.transitions.ValidateTaskTransition(ctx, f.scope, task, a.ID)

		require.NoError(t, err)
		assert.True(t, tr.IsNoop())
	})

	t.Run("task without status accepts any target", func(t *testing.T) {
		task := f.tasks.placeTask(uuid.Nil)

		tr, err := f.transitions.ValidateTaskTransition(ctx, f.scope, task, c.ID)

		require.NoError(t, err)
		assert.True(t, tr.IsChecked())
	})

	t.Run("unknown target", func(t *testing.T) {
		task := f.tasks.placeTask(a.ID)

		_, err := f.transitions.ValidateTaskTransition(ctx, f.scope, task, uuid.New())

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestTransition_InitialTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.transitions.InitialTransition(ctx, f.scope, uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no statuses yet")

	a, _, c := f.abc(t)

	tr, err := f.transitions.InitialTransition(ctx, f.scope, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, tr.ToID())

	tr, err = f.transitions.InitialTransition(ctx, f.scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, tr.ToID())
}
