package outbox_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
)

type labelAdded struct {
	domain.BaseEvent
	Label string `json:"label"`
}

func newTestRepo(t *testing.T) (*outbox.SQLRepository, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "outbox.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return outbox.NewSQLRepository(conn), conn
}

func TestNewMessage_Envelope(t *testing.T) {
	tenant := domain.NewTenantID(uuid.New())
	event := &labelAdded{
		BaseEvent: domain.NewBaseEvent(tenant, uuid.New(), "Label", "test.label.added"),
		Label:     "urgent",
	}
	actor := uuid.New()
	event.SetMetadata(domain.EventMetadata{ActorID: actor, CorrelationID: uuid.New(), CausationID: uuid.New()})

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, tenant.UUID(), msg.TenantID)
	assert.Equal(t, "test.label.added", msg.RoutingKey)
	assert.False(t, msg.IsPublished())
	assert.True(t, msg.CanRetry(1))

	var envelope eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
	assert.Equal(t, tenant.UUID(), envelope.TenantID)
	assert.Equal(t, actor, envelope.Metadata.ActorID)

	var body labelAdded
	require.NoError(t, envelope.DecodePayload(&body))
	assert.Equal(t, "urgent", body.Label)
}

func TestSQLRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := domain.NewTenantID(uuid.New())

	var msgs []*outbox.Message
	for _, key := range []string{"a.created", "b.created", "c.created"} {
		msg, err := outbox.NewMessage(&labelAdded{BaseEvent: domain.NewBaseEvent(tenant, uuid.New(), "Label", key)})
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	require.NoError(t, repo.SaveBatch(ctx, msgs))
	for _, msg := range msgs {
		assert.NotZero(t, msg.ID)
	}

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "a.created", pending[0].RoutingKey)
	assert.Equal(t, tenant.UUID(), pending[0].TenantID)
	assert.JSONEq(t, string(msgs[0].Payload), string(pending[0].Payload))

	require.NoError(t, repo.MarkPublished(ctx, msgs[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, msgs[1].ID, "broker down", time.Now().Add(time.Hour)))
	require.NoError(t, repo.MarkDead(ctx, msgs[2].ID, "poison"))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	deleted, err := repo.DeleteOld(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLRepository_SaveBatchJoinsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	repo, conn := newTestRepo(t)
	uow := database.NewUnitOfWork(conn)

	msg, err := outbox.NewMessage(&labelAdded{BaseEvent: domain.NewBaseEvent(domain.NewTenantID(uuid.New()), uuid.New(), "Label", "x.created")})
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(txCtx, []*outbox.Message{msg}))
	require.NoError(t, uow.Rollback(txCtx))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
