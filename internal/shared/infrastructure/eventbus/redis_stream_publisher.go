package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen bounds each tenant stream.
const DefaultStreamMaxLen = 10000

// RedisStreamPublisher appends events to a per-tenant Redis stream
// (events:{tenant}) for realtime fan-out to connected clients.
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
	logger *slog.Logger
}

// NewRedisStreamPublisher creates a stream publisher on client.
func NewRedisStreamPublisher(client *redis.Client, maxLen int64, logger *slog.Logger) *RedisStreamPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisStreamPublisher{client: client, maxLen: maxLen, logger: logger}
}

// StreamKey returns the stream a tenant's events are appended to.
func StreamKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("events:%s", tenantID)
}

// Publish XADDs the envelope to its tenant's stream. Events without a
// tenant have no audience and are skipped.
func (p *RedisStreamPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var envelope ConsumedEvent
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}
	if envelope.TenantID == uuid.Nil {
		p.logger.Debug("skipping stream publish without tenant", "routing_key", routingKey)
		return nil
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(envelope.TenantID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event":     routingKey,
			"event_id":  envelope.EventID.String(),
			"aggregate": envelope.AggregateID.String(),
			"payload":   string(envelope.Payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", routingKey, err)
	}
	return nil
}

// Close is a no-op; the client is owned by the container.
func (p *RedisStreamPublisher) Close() error { return nil }
