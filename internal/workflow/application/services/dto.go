package services

import (
	"time"

	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
)

// StatusDTO is the read model of a status exposed to callers and cached per tenant.
type StatusDTO struct {
	ID                 uuid.UUID   `json:"id"`
	TenantID           uuid.UUID   `json:"tenantId"`
	Name               string      `json:"name"`
	Slug               string      `json:"slug"`
	Color              string      `json:"color"`
	Icon               string      `json:"icon"`
	Category           string      `json:"category"`
	Order              int         `json:"order"`
	AllowedTransitions []uuid.UUID `json:"allowedTransitions"`
	IsDefault          bool        `json:"isDefault"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// ToStatusDTO converts a domain status to its read model.
func ToStatusDTO(s *domain.Status) StatusDTO {
	return StatusDTO{
		ID:                 s.ID(),
		TenantID:           s.TenantID().UUID(),
		Name:               s.Name(),
		Slug:               s.Slug(),
		Color:              s.Color(),
		Icon:               string(s.Icon()),
		Category:           string(s.Category()),
		Order:              s.Order(),
		AllowedTransitions: s.AllowedTransitions(),
		IsDefault:          s.IsDefault(),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
}

// ToStatusDTOs converts a slice of domain statuses.
func ToStatusDTOs(statuses []*domain.Status) []StatusDTO {
	out := make([]StatusDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ToStatusDTO(s))
	}
	return out
}

// IsPermissive reports whether the status accepts any move.
func (d StatusDTO) IsPermissive() bool { return len(d.AllowedTransitions) == 0 }

func findDTO(list []StatusDTO, id uuid.UUID) (StatusDTO, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return StatusDTO{}, false
}

// defaultOf returns the flagged default, falling back to the first status by order.
func defaultOf(list []StatusDTO) (StatusDTO, bool) {
	for _, s := range list {
		if s.IsDefault {
			return s, true
		}
	}
	if len(list) == 0 {
		return StatusDTO{}, false
	}
	first := list[0]
	for _, s := range list[1:] {
		if s.Order < first.Order {
			first = s
		}
	}
	return first, true
}
