package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
)

type taskCreateInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	Title    string `json:"title" jsonschema:"required"`
	Status   string `json:"status,omitempty"`
}

type taskMoveInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	TaskID   string `json:"task_id" jsonschema:"required"`
	Status   string `json:"status" jsonschema:"required"`
}

type taskIDInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	TaskID   string `json:"task_id" jsonschema:"required"`
}

type taskListInput struct {
	TenantID  string `json:"tenant_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	Open      bool   `json:"open,omitempty"`
}

func registerTaskTools(srv *mcp.Server, t *tools) error {
	srv.Tool("task.create").
		Description("Create a task, in the default status unless one is given").
		Handler(t.taskCreate)

	srv.Tool("task.move").
		Description("Move a task to another status if the workflow allows it").
		Handler(t.taskMove)

	srv.Tool("task.get").
		Description("Get a task by id").
		Handler(t.taskGet)

	srv.Tool("task.list").
		Description("List tasks, optionally by status or completion").
		Handler(t.taskList)

	return nil
}

func (t *tools) taskCreate(ctx context.Context, input taskCreateInput) (*commands.CreateTaskResult, error) {
	if t.app.CreateTaskHandler == nil {
		return nil, errors.New("task creation requires database connection")
	}
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}

	statusID := uuid.Nil
	if input.Status != "" {
		if statusID, err = t.resolveStatus(ctx, scope, input.Status); err != nil {
			return nil, toolError(err)
		}
	}
	result, err := t.app.CreateTaskHandler.Handle(ctx, scope, commands.CreateTaskCommand{
		Title:    input.Title,
		StatusID: statusID,
	})
	return result, toolError(err)
}

func (t *tools) taskMove(ctx context.Context, input taskMoveInput) (*commands.ChangeTaskStatusResult, error) {
	if t.app.ChangeTaskStatusHandler == nil {
		return nil, errors.New("task moves require database connection")
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	statusID, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}

	result, err := t.app.ChangeTaskStatusHandler.Handle(ctx, scope, commands.ChangeTaskStatusCommand{
		TaskID:   taskID,
		StatusID: statusID,
	})
	return result, toolError(err)
}

func (t *tools) taskGet(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	if t.app.GetTaskHandler == nil {
		return nil, errors.New("task lookup requires database connection")
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	task, err := t.app.GetTaskHandler.Handle(ctx, scope, queries.GetTaskQuery{TaskID: taskID})
	return task, toolError(err)
}

func (t *tools) taskList(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
	if t.app.ListTasksHandler == nil {
		return nil, errors.New("task listing requires database connection")
	}
	if input.Completed && input.Open {
		return nil, errors.New("completed and open are mutually exclusive")
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}

	query := queries.ListTasksQuery{OnlyCompleted: input.Completed, OnlyOpen: input.Open}
	if input.Status != "" {
		if query.StatusID, err = t.resolveStatus(ctx, scope, input.Status); err != nil {
			return nil, toolError(err)
		}
	}
	tasks, err := t.app.ListTasksHandler.Handle(ctx, scope, query)
	return tasks, toolError(err)
}
