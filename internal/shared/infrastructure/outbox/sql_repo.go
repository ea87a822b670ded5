package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
)

// SQLRepository implements Repository on any registered database driver.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates an outbox repository on conn.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

const insertMessage = `
INSERT INTO outbox (event_id, tenant_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	ex := r.exec(ctx)
	for _, msg := range msgs {
		err := ex.QueryRow(ctx, r.q(insertMessage),
			msg.EventID, msg.TenantID, msg.AggregateType, msg.AggregateID,
			msg.RoutingKey, string(msg.Payload), msg.CreatedAt.UTC(),
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", msg.RoutingKey, err)
		}
	}
	return nil
}

const selectUnpublished = `
SELECT id, event_id, tenant_id, aggregate_type, aggregate_id, routing_key, payload,
       created_at, next_retry_at, retry_count, last_error
FROM outbox
WHERE published_at IS NULL
  AND dead_lettered_at IS NULL
  AND (next_retry_at IS NULL OR next_retry_at <= ?)
ORDER BY id
LIMIT ?`

func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(selectUnpublished), time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("select unpublished: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			msg     Message
			payload string
		)
		if err := rows.Scan(
			&msg.ID, &msg.EventID, &msg.TenantID, &msg.AggregateType, &msg.AggregateID,
			&msg.RoutingKey, &payload, &msg.CreatedAt, &msg.NextRetryAt, &msg.RetryCount, &msg.LastError,
		); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		msg.Payload = []byte(payload)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`UPDATE outbox SET published_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`),
		errMsg, nextRetryAt.UTC(), id,
	)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ?, retry_count = retry_count + 1 WHERE id = ?`),
		time.Now().UTC(), reason, id,
	)
	return err
}

func (r *SQLRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := r.exec(ctx).Exec(ctx,
		r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
