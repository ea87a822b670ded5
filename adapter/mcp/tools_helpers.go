package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
)

// tools carries the application behind every tool handler.
type tools struct {
	app *cli.App
}

// scope resolves the tenant a call acts on. An empty tenant means the
// configured default.
func (t *tools) scope(tenant string) (sharedApplication.Scope, error) {
	scope, err := t.app.TenantScope(tenant)
	if err != nil {
		return sharedApplication.Scope{}, fmt.Errorf("invalid tenant_id: %w", err)
	}
	return scope, nil
}

func (t *tools) resolveStatus(ctx context.Context, scope sharedApplication.Scope, ref string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, errors.New("status is required")
	}
	return t.app.ResolveStatus(ctx, scope, ref)
}

func (t *tools) resolveStatuses(ctx context.Context, scope sharedApplication.Scope, refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := t.resolveStatus(ctx, scope, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// toolError prefixes operational errors with their stable code so clients
// can branch on it.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	if code := domain.ErrorCode(err); code != "" {
		return fmt.Errorf("%s: %w", code, err)
	}
	return err
}
