package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	workflowDomain "github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/google/uuid"
)

// StatusGuard issues the checked transitions a task needs to take or change a status.
type StatusGuard interface {
	InitialTransition(ctx context.Context, scope sharedApplication.Scope, statusID uuid.UUID) (workflowDomain.Transition, error)
	ValidateTaskTransition(ctx context.Context, scope sharedApplication.Scope, taskID, statusID uuid.UUID) (workflowDomain.Transition, error)
}
