package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
	"github.com/google/uuid"
)

// CreateStatusInput describes a new status. Empty fields take defaults.
type CreateStatusInput struct {
	Name               string
	Slug               string
	Color              string
	Icon               string
	Category           string
	Order              *int
	IsDefault          bool
	AllowedTransitions []uuid.UUID
}

// UpdateStatusInput holds the fields to change. Nil fields are left alone.
type UpdateStatusInput struct {
	Name               *string
	Slug               *string
	Color              *string
	Icon               *string
	Category           *string
	IsDefault          *bool
	AllowedTransitions *[]uuid.UUID
}

// LifecycleService orchestrates status create, update, delete, reorder and
// default changes while keeping the workflow invariants.
type LifecycleService struct {
	statuses    domain.StatusRepository
	tasks       domain.TaskUsage
	transitions *TransitionService
	catalog     *StatusCatalog
	outbox      outbox.Repository
	uow         sharedApplication.UnitOfWork
	logger      *slog.Logger
	metrics     observability.Metrics
	now         func() time.Time
}

// NewLifecycleService creates a LifecycleService.
func NewLifecycleService(
	statuses domain.StatusRepository,
	tasks domain.TaskUsage,
	transitions *TransitionService,
	catalog *StatusCatalog,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &LifecycleService{
		statuses:    statuses,
		tasks:       tasks,
		transitions: transitions,
		catalog:     catalog,
		outbox:      outboxRepo,
		uow:         uow,
		logger:      logger,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the live statuses of the tenant ordered by position.
func (s *LifecycleService) List(ctx context.Context, scope sharedApplication.Scope) ([]StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.catalog.Statuses(ctx, scope.TenantID)
}

// Get returns one status.
func (s *LifecycleService) Get(ctx context.Context, scope sharedApplication.Scope, id uuid.UUID) (StatusDTO, error) {
	list, err := s.List(ctx, scope)
	if err != nil {
		return StatusDTO{}, err
	}
	dto, ok := findDTO(list, id)
	if !ok {
		return StatusDTO{}, domain.NewNotFoundError("Status", id)
	}
	return dto, nil
}

// GetDefault returns the default status, or the first by order when none is flagged.
func (s *LifecycleService) GetDefault(ctx context.Context, scope sharedApplication.Scope) (StatusDTO, error) {
	list, err := s.List(ctx, scope)
	if err != nil {
		return StatusDTO{}, err
	}
	dto, ok := defaultOf(list)
	if !ok {
		return StatusDTO{}, domain.NewNotFoundError("Default status", uuid.Nil)
	}
	return dto, nil
}

// Create adds a status. The first status of a tenant always becomes the default.
func (s *LifecycleService) Create(ctx context.Context, scope sharedApplication.Scope, in CreateStatusInput) (StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return StatusDTO{}, err
	}
	tenantID := scope.TenantID

	dto, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (StatusDTO, error) {
		name := domain.NormalizeName(in.Name)
		if err := s.ensureNameFree(txCtx, tenantID, name, uuid.Nil); err != nil {
			return StatusDTO{}, err
		}
		slug, err := s.resolveSlug(txCtx, tenantID, name, in.Slug, uuid.Nil)
		if err != nil {
			return StatusDTO{}, err
		}

		status, err := domain.NewStatus(tenantID, domain.StatusParams{
			Name:     name,
			Slug:     slug,
			Color:    in.Color,
			Icon:     domain.Icon(in.Icon),
			Category: domain.Category(in.Category),
		})
		if err != nil {
			return StatusDTO{}, err
		}
		if len(in.AllowedTransitions) > 0 {
			targets, err := s.transitions.resolveTargets(txCtx, tenantID, status.ID(), in.AllowedTransitions)
			if err != nil {
				return StatusDTO{}, err
			}
			if err := status.SetTransitions(targets); err != nil {
				return StatusDTO{}, err
			}
		}

		existing, err := s.statuses.List(txCtx, tenantID)
		if err != nil {
			return StatusDTO{}, err
		}
		position, err := s.statuses.NextOrder(txCtx, tenantID)
		if err != nil {
			return StatusDTO{}, err
		}
		if in.Order != nil {
			position = clamp(*in.Order, 0, position)
		}
		status.SetOrder(position)

		var previousDefault *domain.Status
		if len(existing) == 0 || in.IsDefault {
			previousDefault = flaggedDefault(existing)
			if err := s.statuses.ClearDefault(txCtx, tenantID, status.ID()); err != nil {
				return StatusDTO{}, err
			}
			status.MarkDefault()
		}

		if err := s.statuses.Insert(txCtx, status); err != nil {
			return StatusDTO{}, err
		}
		if position < len(existing) {
			ordered := make([]uuid.UUID, 0, len(existing)+1)
			for _, other := range existing {
				ordered = append(ordered, other.ID())
			}
			ordered = append(ordered[:position], append([]uuid.UUID{status.ID()}, ordered[position:]...)...)
			if err := s.statuses.BulkReorder(txCtx, tenantID, ordered); err != nil {
				return StatusDTO{}, err
			}
		}

		events := []sharedDomain.DomainEvent{domain.NewStatusCreated(status)}
		if status.IsDefault() && previousDefault != nil {
			events = append(events, domain.NewDefaultStatusChanged(status, previousDefault))
		}
		if err := saveEvents(txCtx, s.outbox, scope, events...); err != nil {
			return StatusDTO{}, err
		}
		return ToStatusDTO(status), nil
	})
	if err != nil {
		return StatusDTO{}, err
	}

	s.catalog.Invalidate(ctx, tenantID)
	s.metrics.Counter(observability.MetricStatusCreated, 1)
	s.logger.InfoContext(ctx, "status created",
		"tenant_id", tenantID.String(),
		"status_id", dto.ID,
		"slug", dto.Slug,
		"is_default", dto.IsDefault,
	)
	return dto, nil
}

// Update changes the given fields of a status. Renaming regenerates the slug
// unless one is supplied.
func (s *LifecycleService) Update(ctx context.Context, scope sharedApplication.Scope, id uuid.UUID, in UpdateStatusInput) (StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return StatusDTO{}, err
	}
	tenantID := scope.TenantID

	var changed bool
	dto, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (StatusDTO, error) {
		status, err := s.statuses.FindByID(txCtx, tenantID, id)
		if err != nil {
			return StatusDTO{}, err
		}

		var changes []string
		if in.Name != nil && domain.NormalizeName(*in.Name) != status.Name() {
			name := domain.NormalizeName(*in.Name)
			if err := s.ensureNameFree(txCtx, tenantID, name, id); err != nil {
				return StatusDTO{}, err
			}
			if err := status.Rename(name); err != nil {
				return StatusDTO{}, err
			}
			changes = append(changes, "name")
			if in.Slug == nil {
				slug, err := s.resolveSlug(txCtx, tenantID, name, "", id)
				if err != nil {
					return StatusDTO{}, err
				}
				if slug != status.Slug() {
					if err := status.SetSlug(slug); err != nil {
						return StatusDTO{}, err
					}
					changes = append(changes, "slug")
				}
			}
		}
		if in.Slug != nil && *in.Slug != status.Slug() {
			slug, err := s.resolveSlug(txCtx, tenantID, status.Name(), *in.Slug, id)
			if err != nil {
				return StatusDTO{}, err
			}
			if slug != status.Slug() {
				if err := status.SetSlug(slug); err != nil {
					return StatusDTO{}, err
				}
				changes = append(changes, "slug")
			}
		}
		if in.Color != nil && *in.Color != status.Color() {
			if err := status.SetColor(*in.Color); err != nil {
				return StatusDTO{}, err
			}
			changes = append(changes, "color")
		}
		if in.Icon != nil && domain.Icon(*in.Icon) != status.Icon() {
			if err := status.SetIcon(domain.Icon(*in.Icon)); err != nil {
				return StatusDTO{}, err
			}
			changes = append(changes, "icon")
		}
		if in.Category != nil && domain.Category(*in.Category) != status.Category() {
			if err := status.SetCategory(domain.Category(*in.Category)); err != nil {
				return StatusDTO{}, err
			}
			changes = append(changes, "category")
		}

		transitionsChanged := false
		if in.AllowedTransitions != nil {
			targets, err := s.transitions.resolveTargets(txCtx, tenantID, id, *in.AllowedTransitions)
			if err != nil {
				return StatusDTO{}, err
			}
			if !sameIDs(targets, status.AllowedTransitions()) {
				if err := status.SetTransitions(targets); err != nil {
					return StatusDTO{}, err
				}
				transitionsChanged = true
				changes = append(changes, "allowedTransitions")
			}
		}

		becameDefault := false
		if in.IsDefault != nil && *in.IsDefault != status.IsDefault() {
			if !*in.IsDefault {
				return StatusDTO{}, domain.NewValidationError("isDefault", "set another status as default instead")
			}
			becameDefault = true
			changes = append(changes, "isDefault")
		}

		if len(changes) == 0 {
			return ToStatusDTO(status), nil
		}

		var previousDefault *domain.Status
		if becameDefault {
			if previousDefault, err = s.currentDefault(txCtx, tenantID); err != nil {
				return StatusDTO{}, err
			}
			if err := s.statuses.ClearDefault(txCtx, tenantID, id); err != nil {
				return StatusDTO{}, err
			}
			status.MarkDefault()
		}
		if err := s.statuses.Update(txCtx, status); err != nil {
			return StatusDTO{}, err
		}

		events := []sharedDomain.DomainEvent{domain.NewStatusUpdated(status, changes)}
		if transitionsChanged {
			events = append(events, domain.NewStatusTransitionsUpdated(status))
		}
		if becameDefault {
			events = append(events, domain.NewDefaultStatusChanged(status, previousDefault))
		}
		if err := saveEvents(txCtx, s.outbox, scope, events...); err != nil {
			return StatusDTO{}, err
		}
		changed = true
		return ToStatusDTO(status), nil
	})
	if err != nil {
		return StatusDTO{}, err
	}

	if changed {
		s.catalog.Invalidate(ctx, tenantID)
		s.metrics.Counter(observability.MetricStatusUpdated, 1)
		s.logger.InfoContext(ctx, "status updated",
			"tenant_id", tenantID.String(),
			"status_id", id,
		)
	}
	return dto, nil
}

// Delete soft-deletes a status. The default flag moves to the first remaining
// status, references to the status are stripped and order is compacted.
func (s *LifecycleService) Delete(ctx context.Context, scope sharedApplication.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	tenantID := scope.TenantID

	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		status, err := s.statuses.FindByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		count, err := s.statuses.Count(txCtx, tenantID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return domain.NewConflictError("cannot delete the only status of a workflow")
		}
		inUse, err := s.tasks.CountByStatus(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return domain.NewConflictError("cannot delete status %q: %d task(s) still use it", status.Name(), inUse)
		}

		wasDefault := status.IsDefault()
		if err := s.statuses.SoftDelete(txCtx, tenantID, id, s.now()); err != nil {
			return err
		}
		if _, err := s.transitions.removeDanglingReferences(txCtx, tenantID, id); err != nil {
			return err
		}

		remaining, err := s.statuses.List(txCtx, tenantID)
		if err != nil {
			return err
		}
		var newDefault *domain.Status
		if wasDefault && len(remaining) > 0 {
			newDefault = remaining[0]
			newDefault.MarkDefault()
			if err := s.statuses.Update(txCtx, newDefault); err != nil {
				return err
			}
		}
		if err := s.statuses.BulkReorder(txCtx, tenantID, statusIDs(remaining)); err != nil {
			return err
		}

		status.MarkDeleted(s.now())
		events := []sharedDomain.DomainEvent{domain.NewStatusDeleted(status, newDefault)}
		if newDefault != nil {
			events = append(events, domain.NewDefaultStatusChanged(newDefault, status))
		}
		return saveEvents(txCtx, s.outbox, scope, events...)
	})
	if err != nil {
		return err
	}

	s.catalog.Invalidate(ctx, tenantID)
	s.metrics.Counter(observability.MetricStatusDeleted, 1)
	s.logger.InfoContext(ctx, "status deleted",
		"tenant_id", tenantID.String(),
		"status_id", id,
	)
	return nil
}

// Reorder assigns positions from orderedIDs, which must be exactly the live status set.
func (s *LifecycleService) Reorder(ctx context.Context, scope sharedApplication.Scope, orderedIDs []uuid.UUID) ([]StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	tenantID := scope.TenantID

	_, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (struct{}, error) {
		current, err := s.statuses.List(txCtx, tenantID)
		if err != nil {
			return struct{}{}, err
		}
		if err := validateOrderedSet(statusIDs(current), orderedIDs); err != nil {
			return struct{}{}, err
		}
		if err := s.statuses.BulkReorder(txCtx, tenantID, orderedIDs); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, saveEvents(txCtx, s.outbox, scope, domain.NewStatusesReordered(tenantID, orderedIDs))
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Invalidate(ctx, tenantID)
	s.metrics.Counter(observability.MetricStatusReordered, 1)
	s.logger.InfoContext(ctx, "statuses reordered",
		"tenant_id", tenantID.String(),
		"count", len(orderedIDs),
	)
	return s.catalog.Statuses(ctx, tenantID)
}

// SetDefault moves the default flag to id. Setting the current default again is a no-op.
func (s *LifecycleService) SetDefault(ctx context.Context, scope sharedApplication.Scope, id uuid.UUID) (StatusDTO, error) {
	if err := scope.Validate(); err != nil {
		return StatusDTO{}, err
	}
	tenantID := scope.TenantID

	var moved bool
	dto, err := sharedApplication.InUnitOfWork(ctx, s.uow, func(txCtx context.Context) (StatusDTO, error) {
		status, err := s.statuses.FindByID(txCtx, tenantID, id)
		if err != nil {
			return StatusDTO{}, err
		}
		if status.IsDefault() {
			return ToStatusDTO(status), nil
		}
		previous, err := s.currentDefault(txCtx, tenantID)
		if err != nil {
			return StatusDTO{}, err
		}
		if err := s.statuses.ClearDefault(txCtx, tenantID, id); err != nil {
			return StatusDTO{}, err
		}
		status.MarkDefault()
		if err := s.statuses.Update(txCtx, status); err != nil {
			return StatusDTO{}, err
		}
		if err := saveEvents(txCtx, s.outbox, scope, domain.NewDefaultStatusChanged(status, previous)); err != nil {
			return StatusDTO{}, err
		}
		moved = true
		return ToStatusDTO(status), nil
	})
	if err != nil {
		return StatusDTO{}, err
	}

	if moved {
		s.catalog.Invalidate(ctx, tenantID)
		s.metrics.Counter(observability.MetricStatusUpdated, 1, observability.T("field", "isDefault"))
		s.logger.InfoContext(ctx, "default status changed",
			"tenant_id", tenantID.String(),
			"status_id", id,
		)
	}
	return dto, nil
}

func (s *LifecycleService) ensureNameFree(ctx context.Context, tenantID sharedDomain.TenantID, name string, excludeID uuid.UUID) error {
	if !domain.ValidName(name) {
		return domain.NewValidationError("name", "must be between 1 and 50 characters")
	}
	taken, err := s.statuses.NameTaken(ctx, tenantID, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewConflictError("a status named %q already exists", name)
	}
	return nil
}

// resolveSlug validates an explicit slug or derives one from name, then
// disambiguates it against the tenant's other statuses.
func (s *LifecycleService) resolveSlug(ctx context.Context, tenantID sharedDomain.TenantID, name, explicit string, excludeID uuid.UUID) (string, error) {
	base := strings.TrimSpace(explicit)
	if base != "" {
		if len(base) > domain.MaxSlugLength {
			return "", domain.NewValidationError("slug", "must be at most %d characters", domain.MaxSlugLength)
		}
		if !domain.ValidSlug(base) {
			return "", domain.NewValidationError("slug", "must contain only lowercase letters, numbers and hyphens")
		}
	} else {
		base = domain.Slugify(name)
		if base == "" {
			return "", domain.NewValidationError("name", "must contain at least one letter or number")
		}
	}
	return s.statuses.UniqueSlug(ctx, tenantID, base, excludeID)
}

func (s *LifecycleService) currentDefault(ctx context.Context, tenantID sharedDomain.TenantID) (*domain.Status, error) {
	def, err := s.statuses.FindDefault(ctx, tenantID)
	if isNotFound(err) {
		return nil, nil
	}
	return def, err
}

// validateOrderedSet requires ordered to be a permutation of current.
func validateOrderedSet(current, ordered []uuid.UUID) error {
	want := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		want[id] = struct{}{}
	}

	verr := &domain.ValidationError{}
	seen := make(map[uuid.UUID]struct{}, len(ordered))
	var duplicate, unknown []string
	for _, id := range ordered {
		if _, ok := seen[id]; ok {
			duplicate = append(duplicate, id.String())
			continue
		}
		seen[id] = struct{}{}
		if _, ok := want[id]; !ok {
			unknown = append(unknown, id.String())
		}
	}
	var missing []string
	for _, id := range current {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id.String())
		}
	}

	for _, group := range []struct {
		label string
		ids   []string
	}{
		{"missing ids", missing},
		{"unknown ids", unknown},
		{"duplicate ids", duplicate},
	} {
		if len(group.ids) > 0 {
			sort.Strings(group.ids)
			verr.Add("orderedIds", group.label+": "+strings.Join(group.ids, ", "))
		}
	}
	return verr.OrNil()
}

func flaggedDefault(statuses []*domain.Status) *domain.Status {
	for _, st := range statuses {
		if st.IsDefault() {
			return st
		}
	}
	return nil
}

func statusIDs(statuses []*domain.Status) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(statuses))
	for _, st := range statuses {
		ids = append(ids, st.ID())
	}
	return ids
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !containsID(b, id) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
