package application

import (
	"testing"

	"github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	t.Run("carries actor and correlation from scope", func(t *testing.T) {
		scope := NewScope(domain.NewTenantID(uuid.New()), uuid.New())

		metadata := NewEventMetadata(scope)

		assert.Equal(t, scope.ActorID, metadata.ActorID)
		assert.Equal(t, scope.CorrelationID, metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates a correlation id when scope has none", func(t *testing.T) {
		metadata := NewEventMetadata(Scope{TenantID: domain.NewTenantID(uuid.New())})

		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	tenant := domain.NewTenantID(uuid.New())

	t.Run("applies metadata to every event", func(t *testing.T) {
		event1 := &testEvent{BaseEvent: domain.NewBaseEvent(tenant, uuid.New(), "test", "test.one")}
		event2 := &testEvent{BaseEvent: domain.NewBaseEvent(tenant, uuid.New(), "test", "test.two")}
		metadata := NewEventMetadata(NewScope(tenant, uuid.New()))

		ApplyEventMetadata([]domain.DomainEvent{event1, event2}, metadata)

		assert.Equal(t, metadata, event1.Metadata())
		assert.Equal(t, metadata, event2.Metadata())
	})

	t.Run("handles nil event list", func(t *testing.T) {
		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, domain.EventMetadata{})
		})
	})
}

func TestScope_Validate(t *testing.T) {
	assert.ErrorIs(t, Scope{}.Validate(), ErrMissingTenant)
	assert.NoError(t, NewScope(domain.NewTenantID(uuid.New()), uuid.Nil).Validate())
}
