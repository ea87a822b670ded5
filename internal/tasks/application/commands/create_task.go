package commands

import (
	"context"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/google/uuid"
)

// CreateTaskCommand contains the data needed to create a task.
// A nil StatusID places the task in the tenant's default status.
type CreateTaskCommand struct {
	Title    string
	StatusID uuid.UUID
}

// CreateTaskResult contains the result of creating a task.
type CreateTaskResult struct {
	TaskID   uuid.UUID `json:"taskId"`
	StatusID uuid.UUID `json:"statusId"`
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo   domain.Repository
	guard      StatusGuard
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo domain.Repository, guard StatusGuard, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *CreateTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateTaskHandler{
		taskRepo:   taskRepo,
		guard:      guard,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
	}
}

// Handle executes the CreateTaskCommand.
func (h *CreateTaskHandler) Handle(ctx context.Context, scope sharedApplication.Scope, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	result, err := sharedApplication.InUnitOfWork(ctx, h.uow, func(txCtx context.Context) (*CreateTaskResult, error) {
		initial, err := h.guard.InitialTransition(txCtx, scope, cmd.StatusID)
		if err != nil {
			return nil, err
		}
		task, err := domain.NewTask(scope.TenantID, cmd.Title, initial)
		if err != nil {
			return nil, err
		}
		if err := h.taskRepo.Save(txCtx, task); err != nil {
			return nil, err
		}
		if err := saveTaskEvents(txCtx, h.outboxRepo, scope, task); err != nil {
			return nil, err
		}
		return &CreateTaskResult{TaskID: task.ID(), StatusID: task.StatusID()}, nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "task created",
		"tenant_id", scope.TenantID.String(),
		"task_id", result.TaskID,
		"status_id", result.StatusID,
	)
	return result, nil
}

func saveTaskEvents(ctx context.Context, repo outbox.Repository, scope sharedApplication.Scope, task *domain.Task) error {
	events := task.PullDomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(scope))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}
