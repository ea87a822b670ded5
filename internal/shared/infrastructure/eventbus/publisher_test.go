package eventbus_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), "workflow.status.created", []byte(`{}`)))
	assert.NoError(t, p.Close())
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStreamPublisher_RejectsMalformedEnvelope(t *testing.T) {
	p := eventbus.NewRedisStreamPublisher(unreachableRedis(t), 0, nil)

	err := p.Publish(context.Background(), "workflow.status.created", []byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode event envelope")
}

func TestRedisStreamPublisher_SkipsEventsWithoutTenant(t *testing.T) {
	p := eventbus.NewRedisStreamPublisher(unreachableRedis(t), 0, nil)

	payload, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:     uuid.New(),
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	assert.NoError(t, p.Publish(context.Background(), "workflow.status.created", payload))
	assert.NoError(t, p.Close())
}

func TestRedisStreamPublisher_Integration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	tenant := uuid.New()
	stream := eventbus.StreamKey(tenant)
	defer client.Del(ctx, stream)

	p := eventbus.NewRedisStreamPublisher(client, 5, nil)
	envelope := eventbus.ConsumedEvent{
		EventID:     uuid.New(),
		TenantID:    tenant,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"slug":"review"}`),
	}
	payload, err := json.Marshal(envelope)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, "workflow.status.created", payload))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	values := entries[0].Values
	assert.Equal(t, "workflow.status.created", values["event"])
	assert.Equal(t, envelope.EventID.String(), values["event_id"])
	assert.Equal(t, envelope.AggregateID.String(), values["aggregate"])
	assert.JSONEq(t, `{"slug":"review"}`, values["payload"].(string))
}
