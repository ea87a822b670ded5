package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/api"
	internalApp "github.com/felixgeelhaar/flowboard/internal/app"
	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Workflow services
	Lifecycle   *services.LifecycleService
	Transitions *services.TransitionService
	Seeder      *services.Seeder

	// Task handlers
	CreateTaskHandler       *commands.CreateTaskHandler
	ChangeTaskStatusHandler *commands.ChangeTaskStatusHandler
	GetTaskHandler          *queries.GetTaskHandler
	ListTasksHandler        *queries.ListTasksHandler

	// Serving
	Server          *api.Server
	OutboxProcessor *outbox.Processor
	Health          *observability.HealthRegistry

	// DefaultTenantID is used when --tenant is not given.
	DefaultTenantID uuid.UUID
}

// NewAppFromContainer creates the CLI application over a wired container.
func NewAppFromContainer(c *internalApp.Container) (*App, error) {
	tenantID, err := sharedDomain.ParseTenantID(c.Config.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid FLOWBOARD_TENANT_ID: %w", err)
	}
	serverCfg := api.DefaultServerConfig()
	serverCfg.Version = Version
	if c.Config.HTTPAddr != "" {
		serverCfg.Addr = c.Config.HTTPAddr
	}
	return &App{
		Lifecycle:               c.Lifecycle,
		Transitions:             c.Transitions,
		Seeder:                  c.Seeder,
		CreateTaskHandler:       c.CreateTaskHandler,
		ChangeTaskStatusHandler: c.ChangeTaskStatusHandler,
		GetTaskHandler:          c.GetTaskHandler,
		ListTasksHandler:        c.ListTasksHandler,
		Server:                  api.NewServerFromContainer(serverCfg, c),
		OutboxProcessor:         c.OutboxProcessor,
		Health:                  c.Health,
		DefaultTenantID:         tenantID.UUID(),
	}, nil
}

// Scope builds the scope of a command from --tenant and the command's
// correlation id.
func (a *App) Scope(cmd *cobra.Command) (sharedApplication.Scope, error) {
	scope, err := a.TenantScope(tenantFlag)
	if err != nil {
		return sharedApplication.Scope{}, fmt.Errorf("invalid --tenant: %w", err)
	}
	if info, ok := cmd.Context().Value(commandContextKey{}).(commandContext); ok {
		scope.CorrelationID = info.correlationID
	}
	return scope, nil
}

// TenantScope builds a scope for tenant, or for the default tenant when
// tenant is empty.
func (a *App) TenantScope(tenant string) (sharedApplication.Scope, error) {
	tenantID := sharedDomain.NewTenantID(a.DefaultTenantID)
	if tenant != "" {
		parsed, err := sharedDomain.ParseTenantID(tenant)
		if err != nil {
			return sharedApplication.Scope{}, err
		}
		tenantID = parsed
	}
	scope := sharedApplication.NewScope(tenantID, uuid.Nil)
	return scope, scope.Validate()
}

// ResolveStatus accepts a status id or slug and returns the status id.
func (a *App) ResolveStatus(ctx context.Context, scope sharedApplication.Scope, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	statuses, err := a.Lifecycle.List(ctx, scope)
	if err != nil {
		return uuid.Nil, err
	}
	for _, s := range statuses {
		if s.Slug == ref {
			return s.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("status %q not found", ref)
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application and the scope for cmd.
func RequireApp(cmd *cobra.Command) (*App, sharedApplication.Scope, error) {
	if app == nil {
		return nil, sharedApplication.Scope{}, fmt.Errorf("application not initialized - database connection required")
	}
	scope, err := app.Scope(cmd)
	if err != nil {
		return nil, sharedApplication.Scope{}, err
	}
	return app, scope, nil
}

// PrintJSON writes v as indented JSON to the command's output.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes formatted text to the command's output.
func Printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// ResolveStatusID resolves ref within the command's context.
func ResolveStatusID(cmd *cobra.Command, a *App, scope sharedApplication.Scope, ref string) (uuid.UUID, error) {
	return a.ResolveStatus(cmd.Context(), scope, ref)
}

// ResolveStatusIDs resolves every ref with ResolveStatusID.
func ResolveStatusIDs(cmd *cobra.Command, a *App, scope sharedApplication.Scope, refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := ResolveStatusID(cmd, a, scope, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
