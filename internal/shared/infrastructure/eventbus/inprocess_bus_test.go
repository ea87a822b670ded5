package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{"identity.tenant.provisioned"}}
	bus.RegisterConsumer(consumer)

	envelope := eventbus.ConsumedEvent{
		EventID:     uuid.New(),
		TenantID:    uuid.New(),
		AggregateID: uuid.New(),
		OccurredAt:  time.Now(),
		Payload:     json.RawMessage(`{"name":"acme"}`),
	}
	payload, err := json.Marshal(envelope)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "identity.tenant.provisioned", payload))

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, envelope.EventID, got.EventID)
	assert.Equal(t, envelope.TenantID, got.TenantID)
	assert.Equal(t, "identity.tenant.provisioned", got.RoutingKey)

	var body struct{ Name string }
	require.NoError(t, got.DecodePayload(&body))
	assert.Equal(t, "acme", body.Name)
}

func TestInProcessEventBus_SwallowsFailures(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{"workflow.status.created"}, err: errors.New("boom")})

	payload, err := json.Marshal(eventbus.ConsumedEvent{RoutingKey: "workflow.status.created"})
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), "workflow.status.created", payload))
	assert.NoError(t, bus.Publish(context.Background(), "workflow.status.created", []byte("not json")))
}

type recordingPublisher struct {
	keys   []string
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestFanoutPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	boom := errors.New("broker down")
	failing := &recordingPublisher{err: boom}
	fanout := eventbus.NewFanoutPublisher(ok, nil, failing)

	err := fanout.Publish(context.Background(), "workflow.status.updated", []byte(`{}`))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"workflow.status.updated"}, ok.keys)
	assert.Equal(t, []string{"workflow.status.updated"}, failing.keys)

	require.NoError(t, fanout.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}

func TestStreamKey(t *testing.T) {
	tenant := uuid.MustParse("7b0c5f0e-4a1a-4d1b-9a43-2f6d2c1e8a10")
	assert.Equal(t, "events:7b0c5f0e-4a1a-4d1b-9a43-2f6d2c1e8a10", eventbus.StreamKey(tenant))
}
