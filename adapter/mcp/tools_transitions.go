package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

type setTransitionsInput struct {
	TenantID string   `json:"tenant_id,omitempty"`
	Status   string   `json:"status" jsonschema:"required"`
	Targets  []string `json:"targets,omitempty"`
}

type allowedInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	From     string `json:"from" jsonschema:"required"`
	To       string `json:"to" jsonschema:"required"`
}

// matrixEntry is one row of the transition matrix. Permissive rows have no
// targets and allow moves to any status.
type matrixEntry struct {
	StatusID   uuid.UUID `json:"status_id"`
	Slug       string    `json:"slug"`
	Permissive bool      `json:"permissive"`
	Targets    []string  `json:"targets"`
}

func registerTransitionTools(srv *mcp.Server, t *tools) error {
	srv.Tool("status.matrix").
		Description("Show, for every status, the statuses a task may move to").
		Handler(t.transitionMatrix)

	srv.Tool("status.available").
		Description("List the statuses a task in the given status may move to").
		Handler(t.availableTargets)

	srv.Tool("status.set_transitions").
		Description("Replace the allowed transitions of a status; no targets allows any move").
		Handler(t.setTransitions)

	srv.Tool("status.is_allowed").
		Description("Check whether a task may move between two statuses").
		Handler(t.isAllowed)

	return nil
}

func (t *tools) transitionMatrix(ctx context.Context, input tenantInput) ([]matrixEntry, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	statuses, err := t.app.Lifecycle.List(ctx, scope)
	if err != nil {
		return nil, toolError(err)
	}
	matrix, err := t.app.Transitions.Matrix(ctx, scope)
	if err != nil {
		return nil, toolError(err)
	}

	slugs := statusSlugs(statuses)
	entries := make([]matrixEntry, 0, len(statuses))
	for _, s := range statuses {
		edges := matrix[s.ID]
		entry := matrixEntry{
			StatusID:   s.ID,
			Slug:       s.Slug,
			Permissive: len(edges) == 0,
			Targets:    make([]string, 0, len(edges)),
		}
		for _, id := range edges {
			entry.Targets = append(entry.Targets, slugs[id])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (t *tools) availableTargets(ctx context.Context, input statusRefInput) ([]services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}
	targets, err := t.app.Transitions.AvailableTargets(ctx, scope, id)
	return targets, toolError(err)
}

func (t *tools) setTransitions(ctx context.Context, input setTransitionsInput) (*services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}
	targets, err := t.resolveStatuses(ctx, scope, input.Targets)
	if err != nil {
		return nil, toolError(err)
	}
	status, err := t.app.Transitions.SetTransitions(ctx, scope, id, targets)
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

func (t *tools) isAllowed(ctx context.Context, input allowedInput) (map[string]any, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	from, err := t.resolveStatus(ctx, scope, input.From)
	if err != nil {
		return nil, toolError(err)
	}
	to, err := t.resolveStatus(ctx, scope, input.To)
	if err != nil {
		return nil, toolError(err)
	}
	allowed, err := t.app.Transitions.IsAllowed(ctx, scope, from, to)
	if err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"from": from, "to": to, "allowed": allowed}, nil
}
