package persistence

import (
	"context"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	workflowDomain "github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
)

// SQLTaskRepository stores tasks and answers the workflow engine's task usage queries.
type SQLTaskRepository struct {
	conn database.Connection
}

// NewSQLTaskRepository creates a task repository on conn.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

var (
	_ domain.Repository        = (*SQLTaskRepository)(nil)
	_ workflowDomain.TaskUsage = (*SQLTaskRepository)(nil)
)

func (r *SQLTaskRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLTaskRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

const upsertTask = `
INSERT INTO tasks (id, tenant_id, title, status_id, completed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE
SET title = excluded.title,
    status_id = excluded.status_id,
    completed_at = excluded.completed_at,
    updated_at = excluded.updated_at
WHERE tasks.tenant_id = excluded.tenant_id AND tasks.deleted_at IS NULL`

func (r *SQLTaskRepository) Save(ctx context.Context, task *domain.Task) error {
	var statusID *uuid.UUID
	if task.HasStatus() {
		id := task.StatusID()
		statusID = &id
	}
	res, err := r.exec(ctx).Exec(ctx, r.q(upsertTask),
		task.ID(), task.TenantID().UUID(), task.Title(), statusID,
		completedAtArg(task), task.CreatedAt().UTC(), task.UpdatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return workflowDomain.NewNotFoundError("Task", task.ID())
	}
	return nil
}

const taskColumns = `id, tenant_id, title, status_id, completed_at, created_at, updated_at`

func (r *SQLTaskRepository) FindByID(ctx context.Context, tenantID sharedDomain.TenantID, id uuid.UUID) (*domain.Task, error) {
	row := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`),
		id, tenantID.UUID(),
	)
	task, err := scanTask(row)
	if database.IsNoRows(err) {
		return nil, workflowDomain.NewNotFoundError("Task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	return task, nil
}

func (r *SQLTaskRepository) List(ctx context.Context, tenantID sharedDomain.TenantID, statusID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = ? AND deleted_at IS NULL`
	args := []any{tenantID.UUID()}
	if statusID != uuid.Nil {
		query += ` AND status_id = ?`
		args = append(args, statusID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *SQLTaskRepository) CountByStatus(ctx context.Context, tenantID sharedDomain.TenantID, statusID uuid.UUID) (int, error) {
	var n int
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT COUNT(*) FROM tasks WHERE tenant_id = ? AND status_id = ? AND deleted_at IS NULL`),
		tenantID.UUID(), statusID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks by status: %w", err)
	}
	return n, nil
}

func (r *SQLTaskRepository) CurrentStatus(ctx context.Context, tenantID sharedDomain.TenantID, taskID uuid.UUID) (uuid.UUID, bool, error) {
	var statusID *uuid.UUID
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT status_id FROM tasks WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`),
		taskID, tenantID.UUID(),
	).Scan(&statusID)
	if database.IsNoRows(err) {
		return uuid.Nil, false, workflowDomain.NewNotFoundError("Task", taskID)
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("load task status: %w", err)
	}
	if statusID == nil || *statusID == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return *statusID, true, nil
}

func scanTask(row database.Row) (*domain.Task, error) {
	var (
		state    domain.TaskState
		tenantID uuid.UUID
		statusID *uuid.UUID
	)
	if err := row.Scan(&state.ID, &tenantID, &state.Title, &statusID, &state.CompletedAt, &state.CreatedAt, &state.UpdatedAt); err != nil {
		return nil, err
	}
	state.TenantID = sharedDomain.NewTenantID(tenantID)
	if statusID != nil {
		state.StatusID = *statusID
	}
	return domain.RehydrateTask(state), nil
}

func completedAtArg(task *domain.Task) any {
	if at := task.CompletedAt(); at != nil {
		return at.UTC()
	}
	return nil
}
