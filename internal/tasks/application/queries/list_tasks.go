package queries

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/google/uuid"
)

// ListTasksQuery contains the parameters for listing tasks.
type ListTasksQuery struct {
	StatusID      uuid.UUID // optional filter
	OnlyCompleted bool
	OnlyOpen      bool
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo domain.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo domain.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle executes the ListTasksQuery.
func (h *ListTasksHandler) Handle(ctx context.Context, scope sharedApplication.Scope, query ListTasksQuery) ([]TaskDTO, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	tasks, err := h.taskRepo.List(ctx, scope.TenantID, query.StatusID)
	if err != nil {
		return nil, err
	}

	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		if query.OnlyCompleted && !t.IsCompleted() {
			continue
		}
		if query.OnlyOpen && t.IsCompleted() {
			continue
		}
		dtos = append(dtos, toTaskDTO(t))
	}
	return dtos, nil
}
