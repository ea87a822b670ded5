package persistence_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/internal/workflow/infrastructure/persistence"
)

func newTestRepo(t *testing.T) (*persistence.SQLStatusRepository, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "workflow.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return persistence.NewSQLStatusRepository(conn), conn
}

func insertStatus(t *testing.T, repo *persistence.SQLStatusRepository, tenant sharedDomain.TenantID, name string, order int) *domain.Status {
	t.Helper()
	s, err := domain.NewStatus(tenant, domain.StatusParams{Name: name, Slug: domain.Slugify(name)})
	require.NoError(t, err)
	s.SetOrder(order)
	require.NoError(t, repo.Insert(context.Background(), s))
	return s
}

func TestSQLStatusRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())

	todo := insertStatus(t, repo, tenant, "To Do", 0)
	done := insertStatus(t, repo, tenant, "Done", 1)
	require.NoError(t, done.SetCategory(domain.CategoryClosed))
	require.NoError(t, done.SetTransitions([]uuid.UUID{todo.ID()}))
	done.MarkDefault()
	require.NoError(t, repo.Update(ctx, done))

	found, err := repo.FindByID(ctx, tenant, done.ID())
	require.NoError(t, err)
	assert.Equal(t, "Done", found.Name())
	assert.Equal(t, "done", found.Slug())
	assert.Equal(t, domain.CategoryClosed, found.Category())
	assert.Equal(t, []uuid.UUID{todo.ID()}, found.AllowedTransitions())
	assert.True(t, found.IsDefault())
	assert.WithinDuration(t, done.CreatedAt(), found.CreatedAt(), time.Second)

	def, err := repo.FindDefault(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, done.ID(), def.ID())

	list, err := repo.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, todo.ID(), list[0].ID())
	assert.True(t, list[0].IsPermissive())

	byIDs, err := repo.FindByIDs(ctx, tenant, []uuid.UUID{todo.ID(), uuid.New()})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
}

func TestSQLStatusRepository_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenantA := sharedDomain.NewTenantID(uuid.New())
	tenantB := sharedDomain.NewTenantID(uuid.New())

	a := insertStatus(t, repo, tenantA, "To Do", 0)
	insertStatus(t, repo, tenantB, "To Do", 0)

	_, err := repo.FindByID(ctx, tenantB, a.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	foreign := domain.RehydrateStatus(func() domain.StatusState {
		st := a.State()
		st.TenantID = tenantB
		st.Name = "Hijacked"
		return st
	}())
	assert.ErrorIs(t, repo.Update(ctx, foreign), domain.ErrNotFound)

	count, err := repo.Count(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLStatusRepository_UniqueIndexes(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())

	first := insertStatus(t, repo, tenant, "Review", 0)

	dup, err := domain.NewStatus(tenant, domain.StatusParams{Name: "REVIEW", Slug: "review-2"})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Insert(ctx, dup), domain.ErrConflict, "names are unique ignoring case")

	first.MarkDefault()
	require.NoError(t, repo.Update(ctx, first))
	second := insertStatus(t, repo, tenant, "Done", 1)
	second.MarkDefault()
	assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrConflict, "one default per tenant")

	require.NoError(t, repo.ClearDefault(ctx, tenant, second.ID()))
	require.NoError(t, repo.Update(ctx, second))
	def, err := repo.FindDefault(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), def.ID())
}

func TestSQLStatusRepository_NameTaken(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())
	s := insertStatus(t, repo, tenant, "In Progress", 0)

	taken, err := repo.NameTaken(ctx, tenant, "in progress", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameTaken(ctx, tenant, "In Progress", s.ID())
	require.NoError(t, err)
	assert.False(t, taken, "a status does not collide with itself")
}

func TestSQLStatusRepository_UniqueSlugAndNextOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())

	next, err := repo.NextOrder(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	base := insertStatus(t, repo, tenant, "Blocked", 0)

	slug, err := repo.UniqueSlug(ctx, tenant, "blocked", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "blocked-1", slug)

	s, err := domain.NewStatus(tenant, domain.StatusParams{Name: "Blocked Again", Slug: slug})
	require.NoError(t, err)
	s.SetOrder(1)
	require.NoError(t, repo.Insert(ctx, s))

	slug, err = repo.UniqueSlug(ctx, tenant, "blocked", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "blocked-2", slug)

	slug, err = repo.UniqueSlug(ctx, tenant, "blocked", base.ID())
	require.NoError(t, err)
	assert.Equal(t, "blocked", slug, "the excluded status keeps its own slug")

	next, err = repo.NextOrder(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestSQLStatusRepository_UniqueSlugStaysWithinMaxLength(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())

	long := strings.Repeat("a", domain.MaxSlugLength)
	first, err := domain.NewStatus(tenant, domain.StatusParams{Name: "Long", Slug: long})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, first))

	slug, err := repo.UniqueSlug(ctx, tenant, long, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", domain.MaxSlugLength-2)+"-1", slug)
	assert.True(t, domain.ValidSlug(slug))

	second, err := domain.NewStatus(tenant, domain.StatusParams{Name: "Long Again", Slug: slug})
	require.NoError(t, err)
	second.SetOrder(1)
	require.NoError(t, repo.Insert(ctx, second))

	slug, err = repo.UniqueSlug(ctx, tenant, long, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", domain.MaxSlugLength-2)+"-2", slug)
}

func TestSQLStatusRepository_SoftDeleteAndReorder(t *testing.T) {
	ctx := context.Background()
	repo, conn := newTestRepo(t)
	tenant := sharedDomain.NewTenantID(uuid.New())
	a := insertStatus(t, repo, tenant, "A", 0)
	b := insertStatus(t, repo, tenant, "B", 1)
	c := insertStatus(t, repo, tenant, "C", 2)

	uow := database.NewUnitOfWork(conn)
	err := sharedApplication.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		if err := repo.SoftDelete(txCtx, tenant, a.ID(), time.Now()); err != nil {
			return err
		}
		return repo.BulkReorder(txCtx, tenant, []uuid.UUID{c.ID(), b.ID()})
	})
	require.NoError(t, err)

	list, err := repo.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c.ID(), list[0].ID())
	assert.Equal(t, 0, list[0].Order())
	assert.Equal(t, b.ID(), list[1].ID())
	assert.Equal(t, 1, list[1].Order())

	assert.ErrorIs(t, repo.SoftDelete(ctx, tenant, a.ID(), time.Now()), domain.ErrNotFound)
	assert.ErrorIs(t, repo.BulkReorder(ctx, tenant, []uuid.UUID{a.ID()}), domain.ErrNotFound)

	again := insertStatus(t, repo, tenant, "A", 2)
	assert.NotEqual(t, a.ID(), again.ID(), "deleted names and slugs can be reused")
}
