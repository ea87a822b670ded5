package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string { return m.eventTypes }

func (m *mockConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	consumer := &mockConsumer{eventTypes: []string{"identity.tenant.provisioned", "workflow.status.created"}}

	registry.Register(consumer)

	assert.Len(t, registry.Consumers("identity.tenant.provisioned"), 1)
	assert.Len(t, registry.Consumers("workflow.status.created"), 1)
	assert.Empty(t, registry.Consumers("unknown"))
	assert.ElementsMatch(t, []string{"identity.tenant.provisioned", "workflow.status.created"}, registry.EventTypes())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	t.Run("delivers to every consumer of the routing key", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(nil)
		first := &mockConsumer{eventTypes: []string{"workflow.status.deleted"}}
		second := &mockConsumer{eventTypes: []string{"workflow.status.deleted"}}
		other := &mockConsumer{eventTypes: []string{"workflow.status.created"}}
		registry.Register(first)
		registry.Register(second)
		registry.Register(other)

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "workflow.status.deleted",
		})

		require.NoError(t, err)
		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
		assert.Empty(t, other.events)
	})

	t.Run("keeps dispatching after a failure and joins errors", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(nil)
		boom := errors.New("boom")
		failing := &mockConsumer{eventTypes: []string{"workflow.status.created"}, err: boom}
		healthy := &mockConsumer{eventTypes: []string{"workflow.status.created"}}
		registry.Register(failing)
		registry.Register(healthy)

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "workflow.status.created"})

		assert.ErrorIs(t, err, boom)
		assert.Len(t, healthy.events, 1)
	})

	t.Run("no consumers is not an error", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(nil)
		assert.NoError(t, registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "nobody.listens"}))
	})
}
