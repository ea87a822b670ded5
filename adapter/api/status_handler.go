package api

import (
	"log/slog"
	"net/http"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

// StatusHandler serves the status and transition endpoints.
type StatusHandler struct {
	lifecycle   *services.LifecycleService
	transitions *services.TransitionService
	logger      *slog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(lifecycle *services.LifecycleService, transitions *services.TransitionService, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{lifecycle: lifecycle, transitions: transitions, logger: logger}
}

// List handles GET /api/v1/statuses
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	list, err := h.lifecycle.List(r.Context(), scope)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/statuses/{statusID}
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	dto, err := h.lifecycle.Get(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetDefault handles GET /api/v1/statuses/default
func (h *StatusHandler) GetDefault(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	dto, err := h.lifecycle.GetDefault(r.Context(), scope)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// Create handles POST /api/v1/statuses
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	var req CreateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.lifecycle.Create(r.Context(), scope, services.CreateStatusInput{
		Name:               req.Name,
		Slug:               req.Slug,
		Color:              req.Color,
		Icon:               req.Icon,
		Category:           req.Category,
		Order:              req.Order,
		IsDefault:          req.IsDefault,
		AllowedTransitions: parseIDs(req.AllowedTransitions),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// Update handles PATCH /api/v1/statuses/{statusID}
func (h *StatusHandler) Update(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := services.UpdateStatusInput{
		Name:      req.Name,
		Slug:      req.Slug,
		Color:     req.Color,
		Icon:      req.Icon,
		Category:  req.Category,
		IsDefault: req.IsDefault,
	}
	if req.AllowedTransitions != nil {
		targets := parseIDs(*req.AllowedTransitions)
		in.AllowedTransitions = &targets
	}

	dto, err := h.lifecycle.Update(r.Context(), scope, id, in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// Delete handles DELETE /api/v1/statuses/{statusID}
func (h *StatusHandler) Delete(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	if err := h.lifecycle.Delete(r.Context(), scope, id); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles PUT /api/v1/statuses/order
func (h *StatusHandler) Reorder(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	var req ReorderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	list, err := h.lifecycle.Reorder(r.Context(), scope, parseIDs(req.OrderedIDs))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// SetDefault handles PUT /api/v1/statuses/{statusID}/default
func (h *StatusHandler) SetDefault(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	dto, err := h.lifecycle.SetDefault(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// Matrix handles GET /api/v1/statuses/transitions
func (h *StatusHandler) Matrix(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	matrix, err := h.transitions.Matrix(r.Context(), scope)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

// AvailableTransitions handles GET /api/v1/statuses/{statusID}/transitions
func (h *StatusHandler) AvailableTransitions(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	targets, err := h.transitions.AvailableTargets(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

// SetTransitions handles PUT /api/v1/statuses/{statusID}/transitions
func (h *StatusHandler) SetTransitions(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope) {
	id, ok := pathID(w, r, "statusID")
	if !ok {
		return
	}
	var req SetTransitionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.transitions.SetTransitions(r.Context(), scope, id, parseIDs(req.AllowedTransitions))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}
