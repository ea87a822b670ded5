package queries

import (
	"time"

	"github.com/felixgeelhaar/flowboard/internal/tasks/domain"
	"github.com/google/uuid"
)

// TaskDTO is the read model of a task.
type TaskDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	StatusID    *uuid.UUID `json:"statusId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID(),
		Title:       t.Title(),
		CompletedAt: t.CompletedAt(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
	if t.HasStatus() {
		id := t.StatusID()
		dto.StatusID = &id
	}
	return dto
}
