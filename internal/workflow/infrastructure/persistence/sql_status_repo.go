package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
)

// SQLStatusRepository implements domain.StatusRepository on postgres or sqlite.
type SQLStatusRepository struct {
	conn database.Connection
}

// NewSQLStatusRepository creates a status repository on conn.
func NewSQLStatusRepository(conn database.Connection) *SQLStatusRepository {
	return &SQLStatusRepository{conn: conn}
}

func (r *SQLStatusRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLStatusRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

const statusColumns = `id, tenant_id, name, slug, color, icon, category, sort_order,
       allowed_transitions, is_default, created_at, updated_at, deleted_at`

func (r *SQLStatusRepository) List(ctx context.Context, tenantID sharedDomain.TenantID) ([]*domain.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses
WHERE tenant_id = ? AND deleted_at IS NULL
ORDER BY sort_order, created_at`
	return r.query(ctx, query, tenantID.UUID())
}

func (r *SQLStatusRepository) FindByID(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID) (*domain.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses
WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`
	s, err := scanStatus(r.exec(ctx).QueryRow(ctx, r.q(query), id, tenantID.UUID()))
	if database.IsNoRows(err) {
		return nil, domain.NewNotFoundError("Status", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find status %s: %w", id, err)
	}
	return s, nil
}

func (r *SQLStatusRepository) FindByIDs(ctx context.Context, tenantID sharedDomain.TenantID, ids []uuid.UUID) ([]*domain.Status, error) {
	if len(ids) == 0 {
		return []*domain.Status{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID.UUID())
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT ` + statusColumns + ` FROM statuses
WHERE tenant_id = ? AND deleted_at IS NULL AND id IN (` + placeholders(len(ids)) + `)
ORDER BY sort_order, created_at`
	return r.query(ctx, query, args...)
}

func (r *SQLStatusRepository) FindDefault(ctx context.Context, tenantID sharedDomain.TenantID) (*domain.Status, error) {
	query := `SELECT ` + statusColumns + ` FROM statuses
WHERE tenant_id = ? AND is_default = ? AND deleted_at IS NULL`
	s, err := scanStatus(r.exec(ctx).QueryRow(ctx, r.q(query), tenantID.UUID(), true))
	if database.IsNoRows(err) {
		return nil, domain.NewNotFoundError("Default status", uuid.Nil)
	}
	if err != nil {
		return nil, fmt.Errorf("find default status: %w", err)
	}
	return s, nil
}

func (r *SQLStatusRepository) NameTaken(ctx context.Context, tenantID sharedDomain.TenantID, name string, excludeID uuid.UUID) (bool, error) {
	var n int
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT COUNT(*) FROM statuses
WHERE tenant_id = ? AND lower(name) = lower(?) AND id <> ? AND deleted_at IS NULL`),
		tenantID.UUID(), name, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check status name: %w", err)
	}
	return n > 0, nil
}

func (r *SQLStatusRepository) Count(ctx context.Context, tenantID sharedDomain.TenantID) (int, error) {
	var n int
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT COUNT(*) FROM statuses WHERE tenant_id = ? AND deleted_at IS NULL`),
		tenantID.UUID(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return n, nil
}

func (r *SQLStatusRepository) NextOrder(ctx context.Context, tenantID sharedDomain.TenantID) (int, error) {
	var next int
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM statuses WHERE tenant_id = ? AND deleted_at IS NULL`),
		tenantID.UUID(),
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next status order: %w", err)
	}
	return next, nil
}

// slugSuffixReserve is how much of a long base gives way to a "-N" suffix.
const slugSuffixReserve = 8

func (r *SQLStatusRepository) UniqueSlug(ctx context.Context, tenantID sharedDomain.TenantID, base string, excludeID uuid.UUID) (string, error) {
	stem := base
	if len(stem) > domain.MaxSlugLength-slugSuffixReserve {
		stem = stem[:domain.MaxSlugLength-slugSuffixReserve]
	}
	rows, err := r.exec(ctx).Query(ctx,
		r.q(`SELECT slug FROM statuses
WHERE tenant_id = ? AND id <> ? AND deleted_at IS NULL AND (slug = ? OR slug LIKE ?)`),
		tenantID.UUID(), excludeID, base, stem+"%",
	)
	if err != nil {
		return "", fmt.Errorf("load slugs: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return "", fmt.Errorf("scan slug: %w", err)
		}
		taken[slug] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for i := 1; ; i++ {
		candidate := suffixedSlug(base, i)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}

// suffixedSlug appends -n to base, shortening base so the result stays
// within MaxSlugLength.
func suffixedSlug(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > domain.MaxSlugLength {
		base = strings.TrimRight(base[:domain.MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}

const insertStatus = `
INSERT INTO statuses (id, tenant_id, name, slug, color, icon, category, sort_order,
                      allowed_transitions, is_default, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLStatusRepository) Insert(ctx context.Context, s *domain.Status) error {
	edges, err := encodeTransitions(s.AllowedTransitions())
	if err != nil {
		return err
	}
	_, err = r.exec(ctx).Exec(ctx, r.q(insertStatus),
		s.ID(), s.TenantID().UUID(), s.Name(), s.Slug(), s.Color(), string(s.Icon()),
		string(s.Category()), s.Order(), edges, s.IsDefault(), s.CreatedAt().UTC(), s.UpdatedAt().UTC(),
	)
	if database.IsUniqueViolation(err) {
		return domain.NewConflictError("a status named %q or with slug %q already exists", s.Name(), s.Slug())
	}
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

const updateStatus = `
UPDATE statuses
SET name = ?, slug = ?, color = ?, icon = ?, category = ?, sort_order = ?,
    allowed_transitions = ?, is_default = ?, updated_at = ?
WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`

func (r *SQLStatusRepository) Update(ctx context.Context, s *domain.Status) error {
	edges, err := encodeTransitions(s.AllowedTransitions())
	if err != nil {
		return err
	}
	res, err := r.exec(ctx).Exec(ctx, r.q(updateStatus),
		s.Name(), s.Slug(), s.Color(), string(s.Icon()), string(s.Category()), s.Order(),
		edges, s.IsDefault(), s.UpdatedAt().UTC(), s.ID(), s.TenantID().UUID(),
	)
	if database.IsUniqueViolation(err) {
		return domain.NewConflictError("a status named %q or with slug %q already exists", s.Name(), s.Slug())
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireAffected(res, s.ID())
}

func (r *SQLStatusRepository) ClearDefault(ctx context.Context, tenantID sharedDomain.TenantID, exceptID uuid.UUID) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE statuses SET is_default = ?, updated_at = ?
WHERE tenant_id = ? AND id <> ? AND is_default = ? AND deleted_at IS NULL`),
		false, time.Now().UTC(), tenantID.UUID(), exceptID, true,
	)
	if err != nil {
		return fmt.Errorf("clear default status: %w", err)
	}
	return nil
}

func (r *SQLStatusRepository) SoftDelete(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID, at time.Time) error {
	res, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE statuses SET deleted_at = ?, is_default = ?, updated_at = ?
WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`),
		at.UTC(), false, at.UTC(), id, tenantID.UUID(),
	)
	if err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return requireAffected(res, id)
}

func (r *SQLStatusRepository) BulkReorder(ctx context.Context, tenantID sharedDomain.TenantID, orderedIDs []uuid.UUID) error {
	ex := r.exec(ctx)
	now := time.Now().UTC()
	query := r.q(`UPDATE statuses SET sort_order = ?, updated_at = ?
WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`)
	for i, id := range orderedIDs {
		res, err := ex.Exec(ctx, query, i, now, id, tenantID.UUID())
		if err != nil {
			return fmt.Errorf("reorder status %s: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLStatusRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Status, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]*domain.Status, 0)
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func scanStatus(row database.Row) (*domain.Status, error) {
	var (
		state    domain.StatusState
		tenantID uuid.UUID
		icon     string
		category string
		edges    string
	)
	err := row.Scan(
		&state.ID, &tenantID, &state.Name, &state.Slug, &state.Color, &icon, &category,
		&state.Order, &edges, &state.IsDefault, &state.CreatedAt, &state.UpdatedAt, &state.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	state.TenantID = sharedDomain.NewTenantID(tenantID)
	state.Icon = domain.Icon(icon)
	state.Category = domain.Category(category)
	if state.AllowedTransitions, err = decodeTransitions(edges); err != nil {
		return nil, err
	}
	return domain.RehydrateStatus(state), nil
}

func encodeTransitions(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode transitions: %w", err)
	}
	return string(b), nil
}

func decodeTransitions(raw string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if strings.TrimSpace(raw) == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode transitions: %w", err)
	}
	return ids, nil
}

func requireAffected(res database.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("Status", id)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
