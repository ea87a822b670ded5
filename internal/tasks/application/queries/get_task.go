package queries

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/google/uuid"
)

// GetTaskQuery contains the parameters for getting a single task.
type GetTaskQuery struct {
	TaskID uuid.UUID
}

// GetTaskHandler handles the GetTaskQuery.
type GetTaskHandler struct {
	taskRepo domain.Repository
}

// NewGetTaskHandler creates a new GetTaskHandler.
func NewGetTaskHandler(taskRepo domain.Repository) *GetTaskHandler {
	return &GetTaskHandler{taskRepo: taskRepo}
}

// Handle executes the GetTaskQuery. Tasks of other tenants are reported as not found.
func (h *GetTaskHandler) Handle(ctx context.Context, scope sharedApplication.Scope, query GetTaskQuery) (*TaskDTO, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	t, err := h.taskRepo.FindByID(ctx, scope.TenantID, query.TaskID)
	if err != nil {
		return nil, err
	}
	dto := toTaskDTO(t)
	return &dto, nil
}
