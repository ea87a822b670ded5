package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
)

// TaskHandler serves the task endpoints.
type TaskHandler struct {
	create       *commands.CreateTaskHandler
	changeStatus *commands.ChangeTaskStatusHandler
	get          *queries.GetTaskHandler
	list         *queries.ListTasksHandler
	logger       *slog.Logger
}

// TaskHandlerConfig holds dependencies for the task handler.
type TaskHandlerConfig struct {
	Create       *commands.CreateTaskHandler
	ChangeStatus *commands.ChangeTaskStatusHandler
	Get          *queries.GetTaskHandler
	List         *queries.ListTasksHandler
	Logger       *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(cfg TaskHandlerConfig) *TaskHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TaskHandler{
		create:       cfg.Create,
		changeStatus: cfg.ChangeStatus,
		get:          cfg.Get,
		list:         cfg.List,
		logger:       cfg.Logger,
	}
}

// List handles GET /api/v1/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	query := queries.ListTasksQuery{
		OnlyCompleted: r.URL.Query().Get("completed") == "true",
		OnlyOpen:      r.URL.Query().Get("completed") == "false",
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid status")
			return
		}
		query.StatusID = id
	}

	tasks, err := h.list.Handle(r.Context(), scope, query)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/v1/tasks/{taskID}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	task, err := h.get.Handle(r.Context(), scope, queries.GetTaskQuery{TaskID: id})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cmd := commands.CreateTaskCommand{Title: req.Title}
	if req.StatusID != "" {
		cmd.StatusID = uuid.MustParse(req.StatusID)
	}

	result, err := h.create.Handle(r.Context(), scope, cmd)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	task, err := h.get.Handle(r.Context(), scope, queries.GetTaskQuery{TaskID: result.TaskID})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ChangeStatus handles PUT /api/v1/tasks/{taskID}/status
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	var req ChangeTaskStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.changeStatus.Handle(r.Context(), scope, commands.ChangeTaskStatusCommand{
		TaskID:   id,
		StatusID: uuid.MustParse(req.StatusID),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	task, err := h.get.Handle(r.Context(), scope, queries.GetTaskQuery{TaskID: id})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
