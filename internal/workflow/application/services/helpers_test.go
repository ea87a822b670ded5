package services_test

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/internal/workflow/infrastructure/persistence"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// taskUsageStub stands in for the task store.
type taskUsageStub struct {
	counts  map[uuid.UUID]int
	current map[uuid.UUID]uuid.UUID
}

func newTaskUsageStub() *taskUsageStub {
	return &taskUsageStub{counts: map[uuid.UUID]int{}, current: map[uuid.UUID]uuid.UUID{}}
}

func (s *taskUsageStub) CountByStatus(_ context.Context, _ sharedDomain.TenantID, statusID uuid.UUID) (int, error) {
	return s.counts[statusID], nil
}

func (s *taskUsageStub) CurrentStatus(_ context.Context, _ sharedDomain.TenantID, taskID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := s.current[taskID]
	if !ok {
		return uuid.Nil, false, nil
	}
	return id, id != uuid.Nil, nil
}

// placeTask records a task sitting in statusID.
func (s *taskUsageStub) placeTask(statusID uuid.UUID) uuid.UUID {
	taskID := uuid.New()
	s.current[taskID] = statusID
	s.counts[statusID]++
	return taskID
}

type fixture struct {
	conn        database.Connection
	repo        *persistence.SQLStatusRepository
	outbox      *outbox.SQLRepository
	cache       *cache.MemoryCache
	tasks       *taskUsageStub
	metrics     *observability.InMemoryMetrics
	catalog     *services.StatusCatalog
	transitions *services.TransitionService
	lifecycle   *services.LifecycleService
	seeder      *services.Seeder
	scope       sharedApplication.Scope
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, cache.NewMemoryCache())
}

func newFixtureWithCache(t *testing.T, c cache.Cache) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "workflow.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))

	f := &fixture{
		conn:    conn,
		repo:    persistence.NewSQLStatusRepository(conn),
		outbox:  outbox.NewSQLRepository(conn),
		tasks:   newTaskUsageStub(),
		metrics: observability.NewInMemoryMetrics(),
		scope:   sharedApplication.NewScope(sharedDomain.NewTenantID(uuid.New()), uuid.New()),
	}
	if mc, ok := c.(*cache.MemoryCache); ok {
		f.cache = mc
	}
	uow := database.NewUnitOfWork(conn)
	f.catalog = services.NewStatusCatalog(f.repo, c, services.DefaultCatalogTTL, nil, f.metrics)
	f.transitions = services.NewTransitionService(f.repo, f.tasks, f.catalog, f.outbox, uow, nil, f.metrics)
	f.lifecycle = services.NewLifecycleService(f.repo, f.tasks, f.transitions, f.catalog, f.outbox, uow, nil, f.metrics)
	f.seeder = services.NewSeeder(f.repo, f.catalog, f.outbox, uow, nil, f.metrics)
	return f
}

func (f *fixture) create(t *testing.T, name string, mods ...func(*services.CreateStatusInput)) services.StatusDTO {
	t.Helper()
	in := services.CreateStatusInput{Name: name}
	for _, mod := range mods {
		mod(&in)
	}
	dto, err := f.lifecycle.Create(context.Background(), f.scope, in)
	require.NoError(t, err)
	return dto
}

// abc creates A(default), B and C with edges A->B and B->C. C is closed.
func (f *fixture) abc(t *testing.T) (a, b, c services.StatusDTO) {
	t.Helper()
	ctx := context.Background()
	a = f.create(t, "A")
	b = f.create(t, "B")
	c = f.create(t, "C", func(in *services.CreateStatusInput) { in.Category = "closed" })

	var err error
	a, err = f.transitions.SetTransitions(ctx, f.scope, a.ID, []uuid.UUID{b.ID})
	require.NoError(t, err)
	b, err = f.transitions.SetTransitions(ctx, f.scope, b.ID, []uuid.UUID{c.ID})
	require.NoError(t, err)
	return a, b, c
}

func (f *fixture) routingKeys(t *testing.T) []string {
	t.Helper()
	msgs, err := f.outbox.GetUnpublished(context.Background(), 1000)
	require.NoError(t, err)
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

// assertWorkflowInvariants checks single default, dense order and clean edges.
func assertWorkflowInvariants(t *testing.T, f *fixture) {
	t.Helper()
	list, err := f.repo.List(context.Background(), f.scope.TenantID)
	require.NoError(t, err)
	if len(list) == 0 {
		return
	}

	defaults := 0
	orders := make([]int, 0, len(list))
	live := make(map[uuid.UUID]struct{}, len(list))
	for _, s := range list {
		live[s.ID()] = struct{}{}
	}
	for _, s := range list {
		if s.IsDefault() {
			defaults++
		}
		orders = append(orders, s.Order())
		for _, target := range s.AllowedTransitions() {
			assert.NotEqual(t, s.ID(), target, "self transition on %s", s.Name())
			assert.Contains(t, live, target, "dangling transition on %s", s.Name())
		}
	}
	assert.Equal(t, 1, defaults, "exactly one default")

	sort.Ints(orders)
	for i, o := range orders {
		assert.Equal(t, i, o, "order is dense")
	}
}

func names(list []services.StatusDTO) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Name)
	}
	return out
}

var _ domain.TaskUsage = (*taskUsageStub)(nil)
