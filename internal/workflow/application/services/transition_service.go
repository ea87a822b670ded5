package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
	"github.com/google/uuid"
)

// TransitionService owns the allowed-transition graph of each tenant and the
// guard every task status change must pass.
type TransitionService struct {
	statuses domain.StatusRepository
	tasks    domain.TaskUsage
	catalog  *StatusCatalog
	outbox   outbox.Repository
	uow      sharedApplication.UnitOfWork
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewTransitionService creates a TransitionService.
func NewTransitionService(
	statuses domain.StatusRepository,
	tasks domain.TaskUsage,
	catalog *StatusCatalog,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *TransitionService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &TransitionService{
		statuses: statuses,
		tasks:    tasks,
		catalog:  catalog,
		outbox:   outboxRepo,
		uow:      uow,
		logger:   logger,
		metrics:  metrics,
	}
}

// IsAllowed reports whether a task may move from one live status to another.
func (s *TransitionService) IsAllowed(ctx context.Context, scope sharedApplication.Scope, from, to uuid.UUID) (bool, error) {
	if err := scope.Validate(); err != nil {
		return false, err
	}
	m, err := s.catalog.Matrix(ctx, scope.TenantID)
	if err != nil {
		return false, err
	}
	if _, ok := m[to]; !ok {
		return false, nil
	}
	return m.IsAllowed(from, to), nil
}

// Matrix returns every status id of the tenant mapped to its allowed targets.
func (s *TransitionService) Matrix(ctx context.Context, scope sharedApplication.Scope) (domain.Matrix, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.catalog.Matrix(ctx, scope.TenantID)
}

// SetTransitions replaces the outgoing edges of statusID.
func (s *TransitionService) SetTransitions(ctx context.Context, scope sharedApplication.Scope, statusID uuid.UUID, targetIDs []uuid.UUID) (StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return StatusDTO{}, err
	}

	dto, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (StatusDTO, error) {
		status, err := s.statuses.FindByID(txCtx, scope.TenantID, statusID)
		if err != nil {
			return StatusDTO{}, err
		}
		targets, err := s.resolveTargets(txCtx, scope.TenantID, statusID, targetIDs)
		if err != nil {
			return StatusDTO{}, err
		}
		if err := status.SetTransitions(targets); err != nil {
			return StatusDTO{}, err
		}
		if err := s.statuses.Update(txCtx, status); err != nil {
			return StatusDTO{}, err
		}
		if err := saveEvents(txCtx, s.outbox, scope, domain.NewStatusTransitionsUpdated(status)); err != nil {
			return StatusDTO{}, err
		}
		return ToStatusDTO(status), nil
	})
	if err != nil {
		return StatusDTO{}, err
	}

	s.catalog.Invalidate(ctx, scope.TenantID)
	s.metrics.Counter(observability.MetricTransitionsUpdated, 1)
	s.logger.InfoContext(ctx, "status transitions updated",
		"tenant_id", scope.TenantID.String(),
		"status_id", statusID,
		"targets", len(dto.AllowedTransitions),
	)
	return dto, nil
}

// AvailableTargets returns the statuses a task in statusID may move to.
// A permissive status offers every other status.
func (s *TransitionService) AvailableTargets(ctx context.Context, scope sharedApplication.Scope, statusID uuid.UUID) ([]StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	list, err := s.catalog.Statuses(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	m, err := s.catalog.Matrix(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	targets, ok := m[statusID]
	if !ok {
		return nil, domain.NewNotFoundError("Status", statusID)
	}

	out := make([]StatusDTO, 0, len(list))
	for _, candidate := range list {
		if candidate.ID == statusID {
			continue
		}
		if len(targets) == 0 || containsID(targets, candidate.ID) {
			out = append(out, candidate)
		}
	}
	return out, nil
}

// RemoveDanglingReferences strips deletedID from every edge set of the tenant
// and returns how many statuses changed. It joins the caller's unit of work.
func (s *TransitionService) RemoveDanglingReferences(ctx context.Context, scope sharedApplication.Scope, deletedID uuid.UUID) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	n, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (int, error) {
		return s.removeDanglingReferences(txCtx, scope.TenantID, deletedID)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.catalog.Invalidate(ctx, scope.TenantID)
	}
	return n, nil
}

func (s *TransitionService) removeDanglingReferences(ctx context.Context, tenantID sharedDomain.TenantID, deletedID uuid.UUID) (int, error) {
	statuses, err := s.statuses.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, status := range statuses {
		if status.ID() == deletedID || !status.RemoveTransition(deletedID) {
			continue
		}
		if err := s.statuses.Update(ctx, status); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// ValidateTaskTransition checks a task's move to newStatusID and returns the
// checked transition the task needs to change status.
func (s *TransitionService) ValidateTaskTransition(ctx context.Context, scope sharedApplication.Scope, taskID, newStatusID uuid.UUID) (domain.Transition, error) {
	if err := scope.Validate(); err != nil {
		return domain.Transition{}, err
	}
	currentID, hasStatus, err := s.tasks.CurrentStatus(ctx, scope.TenantID, taskID)
	if err != nil {
		return domain.Transition{}, err
	}
	to, err := s.statuses.FindByID(ctx, scope.TenantID, newStatusID)
	if err != nil {
		return domain.Transition{}, err
	}

	var from *domain.Status
	if hasStatus {
		if currentID == newStatusID {
			from = to
		} else if from, err = s.statuses.FindByID(ctx, scope.TenantID, currentID); err != nil {
			return domain.Transition{}, err
		}
	}

	t, err := domain.CheckTransition(from, to)
	if err != nil {
		s.metrics.Counter(observability.MetricTransitionRejected, 1)
		s.logger.InfoContext(ctx, "task transition rejected",
			"tenant_id", scope.TenantID.String(),
			"task_id", taskID,
			"from_status_id", currentID,
			"to_status_id", newStatusID,
		)
		return domain.Transition{}, err
	}
	return t, nil
}

// InitialTransition checks the first status of a new task. A nil statusID
// selects the tenant default.
func (s *TransitionService) InitialTransition(ctx context.Context, scope sharedApplication.Scope, statusID uuid.UUID) (domain.Transition, error) {
	if err := scope.Validate(); err != nil {
		return domain.Transition{}, err
	}
	if statusID == uuid.Nil {
		def, err := resolveDefault(ctx, s.statuses, scope.TenantID)
		if err != nil {
			return domain.Transition{}, err
		}
		return domain.CheckTransition(nil, def)
	}
	to, err := s.statuses.FindByID(ctx, scope.TenantID, statusID)
	if err != nil {
		return domain.Transition{}, err
	}
	return domain.CheckTransition(nil, to)
}

// resolveTargets deduplicates targetIDs and requires each to be another live
// status of the tenant.
func (s *TransitionService) resolveTargets(ctx context.Context, tenantID sharedDomain.TenantID, statusID uuid.UUID, targetIDs []uuid.UUID) ([]uuid.UUID, error) {
	targets := domain.DedupeIDs(targetIDs)
	if containsID(targets, statusID) {
		return nil, domain.NewValidationError("allowedTransitions", "a status cannot transition to itself")
	}
	if len(targets) == 0 {
		return targets, nil
	}

	found, err := s.statuses.FindByIDs(ctx, tenantID, targets)
	if err != nil {
		return nil, err
	}
	live := make(map[uuid.UUID]struct{}, len(found))
	for _, st := range found {
		live[st.ID()] = struct{}{}
	}
	var unknown []string
	for _, id := range targets {
		if _, ok := live[id]; !ok {
			unknown = append(unknown, id.String())
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, domain.NewValidationError("allowedTransitions", "unknown status ids: %s", strings.Join(unknown, ", "))
	}
	return targets, nil
}

// resolveDefault returns the flagged default, falling back to the first status by order.
func resolveDefault(ctx context.Context, repo domain.StatusRepository, tenantID sharedDomain.TenantID) (*domain.Status, error) {
	def, err := repo.FindDefault(ctx, tenantID)
	if err == nil {
		return def, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	statuses, err := repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, domain.NewNotFoundError("Default status", uuid.Nil)
	}
	return statuses[0], nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
