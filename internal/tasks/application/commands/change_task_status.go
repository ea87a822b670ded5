package commands

import (
	"context"
	"log/slog"
	"time"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
	"github.com/google/uuid"
)

// ChangeTaskStatusCommand moves a task to another status.
type ChangeTaskStatusCommand struct {
	TaskID   uuid.UUID
	StatusID uuid.UUID
}

// ChangeTaskStatusResult describes the task after the move.
type ChangeTaskStatusResult struct {
	TaskID      uuid.UUID  `json:"taskId"`
	StatusID    uuid.UUID  `json:"statusId"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Changed     bool       `json:"changed"`
}

// ChangeTaskStatusHandler handles the ChangeTaskStatusCommand. The workflow
// guard runs before the write and its rejection aborts the change.
type ChangeTaskStatusHandler struct {
	taskRepo   domain.Repository
	guard      StatusGuard
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewChangeTaskStatusHandler creates a new ChangeTaskStatusHandler.
func NewChangeTaskStatusHandler(
	taskRepo domain.Repository,
	guard StatusGuard,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ChangeTaskStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ChangeTaskStatusHandler{
		taskRepo:   taskRepo,
		guard:      guard,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handle executes the ChangeTaskStatusCommand.
func (h *ChangeTaskStatusHandler) Handle(ctx context.Context, scope sharedApplication.Scope, cmd ChangeTaskStatusCommand) (*ChangeTaskStatusResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	result, err := sharedApplication.InUnitOfWork(ctx, h.uow, func(txCtx context.Context) (*ChangeTaskStatusResult, error) {
		task, err := h.taskRepo.FindByID(txCtx, scope.TenantID, cmd.TaskID)
		if err != nil {
			return nil, err
		}
		transition, err := h.guard.ValidateTaskTransition(txCtx, scope, cmd.TaskID, cmd.StatusID)
		if err != nil {
			return nil, err
		}
		if err := task.ChangeStatus(transition); err != nil {
			return nil, err
		}

		res := &ChangeTaskStatusResult{
			TaskID:      task.ID(),
			StatusID:    task.StatusID(),
			CompletedAt: task.CompletedAt(),
			Changed:     !transition.IsNoop(),
		}
		if !res.Changed {
			return res, nil
		}
		if err := h.taskRepo.Save(txCtx, task); err != nil {
			return nil, err
		}
		if err := saveTaskEvents(txCtx, h.outboxRepo, scope, task); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		h.metrics.Counter(observability.MetricTaskStatusChanged, 1)
		h.logger.InfoContext(ctx, "task status changed",
			"tenant_id", scope.TenantID.String(),
			"task_id", result.TaskID,
			"status_id", result.StatusID,
		)
	}
	return result, nil
}
