package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
)

func registerTenantTools(srv *mcp.Server, t *tools) error {
	srv.Tool("tenant.seed").
		Description("Create the starter workflow for a tenant that has no statuses").
		Handler(t.tenantSeed)

	srv.Tool("flowboard.health").
		Description("Report build information and component health").
		Handler(t.health)

	return nil
}

func (t *tools) tenantSeed(ctx context.Context, input tenantInput) (map[string]any, error) {
	if t.app.Seeder == nil {
		return nil, errors.New("seeding requires database connection")
	}
	scope, err := t.scope(input.TenantID)
	if err != nil {
		return nil, err
	}
	seeded, err := t.app.Seeder.Seed(ctx, scope)
	if err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"tenant_id": scope.TenantID.String(), "seeded": seeded}, nil
}

func (t *tools) health(ctx context.Context, _ struct{}) (map[string]any, error) {
	report := map[string]any{"build": cli.CurrentBuild()}
	if t.app.Health != nil {
		overall := t.app.Health.Check(ctx)
		report["status"] = overall.Status
		report["checks"] = overall.Checks
	}
	return report, nil
}
