package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only views of the default tenant's
// workflow.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}
	t := &tools{app: deps.App}

	srv.Resource("flowboard://statuses").
		Name("Statuses").
		Description("Workflow statuses of the default tenant in order").
		MimeType("application/json").
		Handler(t.statusesResource)

	srv.Resource("flowboard://transitions").
		Name("Transition Matrix").
		Description("Allowed moves between the default tenant's statuses").
		MimeType("application/json").
		Handler(t.transitionsResource)

	return nil
}

func (t *tools) statusesResource(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
	statuses, err := t.statusList(ctx, tenantInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, statuses)
}

func (t *tools) transitionsResource(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
	matrix, err := t.transitionMatrix(ctx, tenantInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, matrix)
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
