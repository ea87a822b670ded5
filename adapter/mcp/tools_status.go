package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

type tenantInput struct {
	TenantID string `json:"tenant_id,omitempty"`
}

type statusRefInput struct {
	TenantID string `json:"tenant_id,omitempty"`
	Status   string `json:"status" jsonschema:"required"`
}

type statusCreateInput struct {
	TenantID           string   `json:"tenant_id,omitempty"`
	Name               string   `json:"name" jsonschema:"required"`
	Slug               string   `json:"slug,omitempty"`
	Color              string   `json:"color,omitempty"`
	Icon               string   `json:"icon,omitempty"`
	Category           string   `json:"category,omitempty"`
	Order              *int     `json:"order,omitempty"`
	IsDefault          bool     `json:"is_default,omitempty"`
	AllowedTransitions []string `json:"allowed_transitions,omitempty"`
}

type statusUpdateInput struct {
	TenantID           string    `json:"tenant_id,omitempty"`
	Status             string    `json:"status" jsonschema:"required"`
	Name               *string   `json:"name,omitempty"`
	Slug               *string   `json:"slug,omitempty"`
	Color              *string   `json:"color,omitempty"`
	Icon               *string   `json:"icon,omitempty"`
	Category           *string   `json:"category,omitempty"`
	IsDefault          *bool     `json:"is_default,omitempty"`
	AllowedTransitions *[]string `json:"allowed_transitions,omitempty"`
}

type statusReorderInput struct {
	TenantID string   `json:"tenant_id,omitempty"`
	Statuses []string `json:"statuses" jsonschema:"required"`
}

func registerStatusTools(srv *mcp.Server, t *tools) error {
	srv.Tool("status.list").
		Description("List the workflow statuses of a tenant in order").
		Handler(t.statusList)

	srv.Tool("status.get").
		Description("Get a status by id or slug").
		Handler(t.statusGet)

	srv.Tool("status.default").
		Description("Get the status new tasks start in").
		Handler(t.statusDefault)

	srv.Tool("status.create").
		Description("Create a status; the first status of a tenant becomes its default").
		Handler(t.statusCreate)

	srv.Tool("status.update").
		Description("Change the given fields of a status").
		Handler(t.statusUpdate)

	srv.Tool("status.delete").
		Description("Delete a status that no task is in; references to it are removed").
		Handler(t.statusDelete)

	srv.Tool("status.reorder").
		Description("Reorder statuses; every status must be listed exactly once").
		Handler(t.statusReorder)

	srv.Tool("status.set_default").
		Description("Make a status the default for new tasks").
		Handler(t.statusSetDefault)

	return nil
}

func (t *tools) statusList(ctx context.Context, input tenantInput) ([]services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	statuses, err := t.app.Lifecycle.List(ctx, scope)
	return statuses, toolError(err)
}

func (t *tools) statusGet(ctx context.Context, input statusRefInput) (*services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}
	status, err := t.app.Lifecycle.Get(ctx, scope, id)
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

func (t *tools) statusDefault(ctx context.Context, input tenantInput) (*services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	status, err := t.app.Lifecycle.GetDefault(ctx, scope)
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

func (t *tools) statusCreate(ctx context.Context, input statusCreateInput) (*services.StatusDTO, error) {
	if input.Name == "" {
		return nil, errors.New("name is required")
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	targets, err := t.resolveStatuses(ctx, scope, input.AllowedTransitions)
	if err != nil {
		return nil, toolError(err)
	}

	status, err := t.app.Lifecycle.Create(ctx, scope, services.CreateStatusInput{
		Name:               input.Name,
		Slug:               input.Slug,
		Color:              input.Color,
		Icon:               input.Icon,
		Category:           input.Category,
		Order:              input.Order,
		IsDefault:          input.IsDefault,
		AllowedTransitions: targets,
	})
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

func (t *tools) statusUpdate(ctx context.Context, input statusUpdateInput) (*services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}

	update := services.UpdateStatusInput{
		Name:      input.Name,
		Slug:      input.Slug,
		Color:     input.Color,
		Icon:      input.Icon,
		Category:  input.Category,
		IsDefault: input.IsDefault,
	}
	if input.AllowedTransitions != nil {
		targets, err := t.resolveStatuses(ctx, scope, *input.AllowedTransitions)
		if err != nil {
			return nil, toolError(err)
		}
		update.AllowedTransitions = &targets
	}

	status, err := t.app.Lifecycle.Update(ctx, scope, id, update)
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

func (t *tools) statusDelete(ctx context.Context, input statusRefInput) (map[string]any, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}
	if err := t.app.Lifecycle.Delete(ctx, scope, id); err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"status_id": id, "deleted": true}, nil
}

func (t *tools) statusReorder(ctx context.Context, input statusReorderInput) ([]services.StatusDTO, error) {
	if len(input.Statuses) == 0 {
		return nil, errors.New("statuses is required")
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	ids, err := t.resolveStatuses(ctx, scope, input.Statuses)
	if err != nil {
		return nil, toolError(err)
	}
	statuses, err := t.app.Lifecycle.Reorder(ctx, scope, ids)
	return statuses, toolError(err)
}

func (t *tools) statusSetDefault(ctx context.Context, input statusRefInput) (*services.StatusDTO, error) {
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	id, err := t.resolveStatus(ctx, scope, input.Status)
	if err != nil {
		return nil, toolError(err)
	}
	status, err := t.app.Lifecycle.SetDefault(ctx, scope, id)
	if err != nil {
		return nil, toolError(err)
	}
	return &status, nil
}

// statusSlugs maps status ids to slugs for readable tool output.
func statusSlugs(statuses []services.StatusDTO) map[uuid.UUID]string {
	slugs := make(map[uuid.UUID]string, len(statuses))
	for _, s := range statuses {
		slugs[s.ID] = s.Slug
	}
	return slugs
}
