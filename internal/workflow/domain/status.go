package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/google/uuid"
)

// Status is one column of a tenant's workflow and a node of its transition graph.
type Status struct {
	sharedDomain.BaseAggregateRoot
	name               string
	slug               string
	color              string
	icon               Icon
	category           Category
	order              int
	allowedTransitions []uuid.UUID
	isDefault          bool
	deletedAt          *time.Time
}

// StatusParams describes a status to be created. Zero values take defaults.
type StatusParams struct {
	Name     string
	Slug     string
	Color    string
	Icon     Icon
	Category Category
}

// NewStatus validates params and creates a status for tenantID.
// Slug must already be resolved; order and default flag are assigned by the caller.
func NewStatus(tenantID sharedDomain.TenantID, params StatusParams) (*Status, error) {
	if params.Color == "" {
		params.Color = DefaultColor
	}
	if params.Icon == "" {
		params.Icon = DefaultIcon
	}
	if params.Category == "" {
		params.Category = DefaultCategory
	}
	params.Name = NormalizeName(params.Name)

	verr := &ValidationError{}
	if !ValidName(params.Name) {
		verr.Add("name", "must be between 1 and 50 characters")
	}
	if !ValidSlug(params.Slug) {
		verr.Add("slug", "must contain only lowercase letters, numbers and hyphens")
	}
	if !ValidColor(params.Color) {
		verr.Add("color", "must be a hex color like #6b7280")
	}
	if !params.Icon.IsValid() {
		verr.Add("icon", "is not a supported icon")
	}
	if !params.Category.IsValid() {
		verr.Add("category", "must be one of open, in_progress, closed")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &Status{
		BaseAggregateRoot:  sharedDomain.NewBaseAggregateRoot(tenantID),
		name:               params.Name,
		slug:               params.Slug,
		color:              params.Color,
		icon:               params.Icon,
		category:           params.Category,
		allowedTransitions: []uuid.UUID{},
	}, nil
}

// StatusState is the persisted form of a status.
type StatusState struct {
	ID                 uuid.UUID
	TenantID           sharedDomain.TenantID
	Name               string
	Slug               string
	Color              string
	Icon               Icon
	Category           Category
	Order              int
	AllowedTransitions []uuid.UUID
	IsDefault          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// RehydrateStatus recreates a status from persisted state.
func RehydrateStatus(state StatusState) *Status {
	transitions := state.AllowedTransitions
	if transitions == nil {
		transitions = []uuid.UUID{}
	}
	return &Status{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(state.ID, state.TenantID, state.CreatedAt, state.UpdatedAt),
		),
		name:               state.Name,
		slug:               state.Slug,
		color:              state.Color,
		icon:               state.Icon,
		category:           state.Category,
		order:              state.Order,
		allowedTransitions: transitions,
		isDefault:          state.IsDefault,
		deletedAt:          state.DeletedAt,
	}
}

// Getters
func (s *Status) Name() string          { return s.name }
func (s *Status) Slug() string          { return s.slug }
func (s *Status) Color() string         { return s.color }
func (s *Status) Icon() Icon            { return s.icon }
func (s *Status) Category() Category    { return s.category }
func (s *Status) Order() int            { return s.order }
func (s *Status) IsDefault() bool       { return s.isDefault }
func (s *Status) DeletedAt() *time.Time { return s.deletedAt }
func (s *Status) IsDeleted() bool       { return s.deletedAt != nil }

// AllowedTransitions returns a copy of the outgoing edges.
func (s *Status) AllowedTransitions() []uuid.UUID {
	out := make([]uuid.UUID, len(s.allowedTransitions))
	copy(out, s.allowedTransitions)
	return out
}

// State returns the persisted form of the status.
func (s *Status) State() StatusState {
	return StatusState{
		ID:                 s.ID(),
		TenantID:           s.TenantID(),
		Name:               s.name,
		Slug:               s.slug,
		Color:              s.color,
		Icon:               s.icon,
		Category:           s.category,
		Order:              s.order,
		AllowedTransitions: s.AllowedTransitions(),
		IsDefault:          s.isDefault,
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
		DeletedAt:          s.deletedAt,
	}
}

// Rename changes the display name.
func (s *Status) Rename(name string) error {
	name = NormalizeName(name)
	if !ValidName(name) {
		return NewValidationError("name", "must be between 1 and 50 characters")
	}
	s.name = name
	s.Touch()
	return nil
}

// SetSlug changes the slug. Uniqueness is the caller's concern.
func (s *Status) SetSlug(slug string) error {
	if !ValidSlug(slug) {
		return NewValidationError("slug", "must contain only lowercase letters, numbers and hyphens")
	}
	s.slug = slug
	s.Touch()
	return nil
}

// SetColor changes the display color.
func (s *Status) SetColor(color string) error {
	if !ValidColor(color) {
		return NewValidationError("color", "must be a hex color like #6b7280")
	}
	s.color = color
	s.Touch()
	return nil
}

// SetIcon changes the icon.
func (s *Status) SetIcon(icon Icon) error {
	if !icon.IsValid() {
		return NewValidationError("icon", "is not a supported icon")
	}
	s.icon = icon
	s.Touch()
	return nil
}

// SetCategory changes the category.
func (s *Status) SetCategory(category Category) error {
	if !category.IsValid() {
		return NewValidationError("category", "must be one of open, in_progress, closed")
	}
	s.category = category
	s.Touch()
	return nil
}

// SetOrder places the status at position order.
func (s *Status) SetOrder(order int) {
	if s.order == order {
		return
	}
	s.order = order
	s.Touch()
}

// MarkDefault flags the status as the tenant default.
func (s *Status) MarkDefault() {
	if s.isDefault {
		return
	}
	s.isDefault = true
	s.Touch()
}

// ClearDefault removes the default flag.
func (s *Status) ClearDefault() {
	if !s.isDefault {
		return
	}
	s.isDefault = false
	s.Touch()
}

// SetTransitions replaces the outgoing edges with the deduplicated targets.
// Targets must be resolved to live statuses by the caller.
func (s *Status) SetTransitions(targets []uuid.UUID) error {
	unique := DedupeIDs(targets)
	for _, id := range unique {
		if id == s.ID() {
			return NewValidationError("allowedTransitions", "a status cannot transition to itself")
		}
		if id == uuid.Nil {
			return NewValidationError("allowedTransitions", "contains an empty id")
		}
	}
	s.allowedTransitions = unique
	s.Touch()
	return nil
}

// RemoveTransition drops target from the edges and reports whether it was present.
func (s *Status) RemoveTransition(target uuid.UUID) bool {
	kept := s.allowedTransitions[:0:0]
	for _, id := range s.allowedTransitions {
		if id != target {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(s.allowedTransitions) {
		return false
	}
	s.allowedTransitions = kept
	s.Touch()
	return true
}

// IsPermissive reports whether the status has no edges and so allows any move.
func (s *Status) IsPermissive() bool { return len(s.allowedTransitions) == 0 }

// Allows reports whether a task in this status may move to target.
func (s *Status) Allows(target uuid.UUID) bool {
	if target == s.ID() {
		return false
	}
	if s.IsPermissive() {
		return true
	}
	for _, id := range s.allowedTransitions {
		if id == target {
			return true
		}
	}
	return false
}

// MarkDeleted soft-deletes the status.
func (s *Status) MarkDeleted(at time.Time) {
	if s.deletedAt != nil {
		return
	}
	at = at.UTC()
	s.deletedAt = &at
	s.isDefault = false
	s.Touch()
}

// DedupeIDs returns ids without duplicates, keeping first occurrences in order.
func DedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
