package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
	fetchErr     error
}

func (r *memoryRepository) SaveBatch(_ context.Context, msgs []*outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		msg.ID = int64(len(r.messages) + 1)
		r.messages = append(r.messages, msg)
	}
	return nil
}

func (r *memoryRepository) GetUnpublished(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	var due []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		due = append(due, msg)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (r *memoryRepository) find(id int64) *outbox.Message {
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (r *memoryRepository) MarkPublished(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.find(id).PublishedAt = &now
	r.publishedIDs = append(r.publishedIDs, id)
	return nil
}

func (r *memoryRepository) MarkFailed(_ context.Context, id int64, errMsg string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.find(id)
	msg.RetryCount++
	msg.LastError = &errMsg
	msg.NextRetryAt = &next
	r.failedIDs = append(r.failedIDs, id)
	return nil
}

func (r *memoryRepository) MarkDead(_ context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	msg := r.find(id)
	msg.DeadLetteredAt = &now
	msg.DeadLetterReason = &reason
	r.deadIDs = append(r.deadIDs, id)
	return nil
}

func (r *memoryRepository) DeleteOld(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type stubPublisher struct {
	mu    sync.Mutex
	keys  []string
	err   error
	calls int
}

func (p *stubPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func seed(t *testing.T, repo *memoryRepository, keys ...string) {
	t.Helper()
	var msgs []*outbox.Message
	for _, key := range keys {
		msgs = append(msgs, &outbox.Message{
			EventID:    uuid.New(),
			TenantID:   uuid.New(),
			RoutingKey: key,
			Payload:    []byte(`{}`),
			CreatedAt:  time.Now(),
		})
	}
	require.NoError(t, repo.SaveBatch(context.Background(), msgs))
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := &memoryRepository{}
	pub := &stubPublisher{}
	seed(t, repo, "workflow.status.created", "workflow.status.reordered")

	p := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), nil)
	require.NoError(t, p.ProcessOnce(context.Background()))

	assert.Equal(t, []string{"workflow.status.created", "workflow.status.reordered"}, pub.keys)
	assert.Equal(t, []int64{1, 2}, repo.publishedIDs)
	assert.Equal(t, uint64(2), p.Stats().PublishedCount)

	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.Equal(t, 2, pub.calls, "published messages are not sent again")
}

func TestProcessor_ProcessOnce_PublishFailure(t *testing.T) {
	repo := &memoryRepository{}
	pub := &stubPublisher{err: errors.New("broker down")}
	seed(t, repo, "workflow.status.deleted")

	p := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), nil)
	require.NoError(t, p.ProcessOnce(context.Background()))

	assert.Equal(t, []int64{1}, repo.failedIDs)
	assert.Empty(t, repo.publishedIDs)
	msg := repo.messages[0]
	assert.Equal(t, 1, msg.RetryCount)
	require.NotNil(t, msg.NextRetryAt)
	assert.True(t, msg.NextRetryAt.After(time.Now()))

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker down", stats.LastError)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := &memoryRepository{}
	pub := &stubPublisher{err: errors.New("rejected")}
	seed(t, repo, "workflow.status.updated")
	repo.messages[0].RetryCount = 2

	cfg := outbox.DefaultProcessorConfig()
	cfg.MaxRetries = 3
	p := outbox.NewProcessor(repo, pub, cfg, nil)
	require.NoError(t, p.ProcessOnce(context.Background()))

	assert.Equal(t, []int64{1}, repo.deadIDs)
	assert.Empty(t, repo.failedIDs)
	assert.Equal(t, uint64(1), p.Stats().DeadCount)
}

func TestProcessor_ProcessOnce_FetchError(t *testing.T) {
	repo := &memoryRepository{fetchErr: errors.New("db gone")}
	p := outbox.NewProcessor(repo, &stubPublisher{}, outbox.DefaultProcessorConfig(), nil)

	assert.EqualError(t, p.ProcessOnce(context.Background()), "db gone")
	assert.Equal(t, "db gone", p.Stats().LastError)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := &memoryRepository{}
	pub := &stubPublisher{}
	seed(t, repo, "workflow.status.created")

	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = 10 * time.Millisecond
	p := outbox.NewProcessor(repo, pub, cfg, nil)

	p.Start(context.Background())
	p.Start(context.Background())
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.keys) == 1
	}, time.Second, 10*time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())
}
