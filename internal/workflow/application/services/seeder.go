package services

import (
	"context"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
	"github.com/google/uuid"
)

// SeedStatus is one entry of the starter workflow.
type SeedStatus struct {
	Params    domain.StatusParams
	IsDefault bool
	Targets   []string
}

// DefaultWorkflow is the starter workflow given to new tenants. Targets are slugs.
var DefaultWorkflow = []SeedStatus{
	{
		Params:    domain.StatusParams{Name: "To Do", Slug: "todo", Color: "#94a3b8", Icon: "circle", Category: domain.CategoryOpen},
		IsDefault: true,
		Targets:   []string{"in-progress", "cancelled"},
	},
	{
		Params:  domain.StatusParams{Name: "In Progress", Slug: "in-progress", Color: "#3b82f6", Icon: "loader", Category: domain.CategoryInProgress},
		Targets: []string{"review", "done", "todo", "cancelled"},
	},
	{
		Params:  domain.StatusParams{Name: "Review", Slug: "review", Color: "#8b5cf6", Icon: "eye", Category: domain.CategoryInProgress},
		Targets: []string{"done", "in-progress", "cancelled"},
	},
	{
		Params:  domain.StatusParams{Name: "Done", Slug: "done", Color: "#22c55e", Icon: "circle-check", Category: domain.CategoryClosed},
		Targets: []string{"in-progress"},
	},
	{
		Params:  domain.StatusParams{Name: "Cancelled", Slug: "cancelled", Color: "#ef4444", Icon: "circle-x", Category: domain.CategoryClosed},
		Targets: []string{"todo"},
	},
}

// Seeder provisions the starter workflow for tenants that have no statuses.
type Seeder struct {
	statuses domain.StatusRepository
	catalog  *StatusCatalog
	outbox   outbox.Repository
	uow      sharedApplication.UnitOfWork
	logger   *slog.Logger
	metrics  observability.Metrics
	workflow []SeedStatus
}

// NewSeeder creates a Seeder for DefaultWorkflow.
func NewSeeder(
	statuses domain.StatusRepository,
	catalog *StatusCatalog,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Seeder{
		statuses: statuses,
		catalog:  catalog,
		outbox:   outboxRepo,
		uow:      uow,
		logger:   logger,
		metrics:  metrics,
		workflow: DefaultWorkflow,
	}
}

// Seed creates the starter workflow and reports whether anything was created.
// Tenants that already have statuses are left untouched.
func (s *Seeder) Seed(ctx context.Context, scope sharedApplication.Scope) (bool, error) {
	if err := scope.Validate(); err != nil {
		return false, err
	}
	tenantID := scope.TenantID

	seeded, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (bool, error) {
		count, err := s.statuses.Count(txCtx, tenantID)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return false, nil
		}

		statuses, err := buildWorkflow(tenantID, s.workflow)
		if err != nil {
			return false, err
		}
		events := make([]sharedDomain.DomainEvent, 0, len(statuses))
		for _, status := range statuses {
			if err := s.statuses.Insert(txCtx, status); err != nil {
				return false, err
			}
			events = append(events, domain.NewStatusCreated(status))
		}
		return true, saveEvents(txCtx, s.outbox, scope, events...)
	})
	if err != nil {
		return false, err
	}
	if !seeded {
		s.logger.DebugContext(ctx, "tenant already has statuses", "tenant_id", tenantID.String())
		return false, nil
	}

	s.catalog.Invalidate(ctx, tenantID)
	s.metrics.Counter(observability.MetricTenantsSeeded, 1)
	s.logger.InfoContext(ctx, "seeded default workflow",
		"tenant_id", tenantID.String(),
		"statuses", len(s.workflow),
	)
	return true, nil
}

func buildWorkflow(tenantID sharedDomain.TenantID, seeds []SeedStatus) ([]*domain.Status, error) {
	statuses := make([]*domain.Status, 0, len(seeds))
	bySlug := make(map[string]uuid.UUID, len(seeds))
	for i, seed := range seeds {
		status, err := domain.NewStatus(tenantID, seed.Params)
		if err != nil {
			return nil, err
		}
		status.SetOrder(i)
		if seed.IsDefault {
			status.MarkDefault()
		}
		bySlug[status.Slug()] = status.ID()
		statuses = append(statuses, status)
	}

	for i, seed := range seeds {
		targets := make([]uuid.UUID, 0, len(seed.Targets))
		for _, slug := range seed.Targets {
			id, ok := bySlug[slug]
			if !ok {
				return nil, domain.NewValidationError("allowedTransitions", "unknown seed slug %q", slug)
			}
			targets = append(targets, id)
		}
		if err := statuses[i].SetTransitions(targets); err != nil {
			return nil, err
		}
	}
	return statuses, nil
}
