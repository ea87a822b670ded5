// Package mcp exposes the workflow engine as MCP tools and resources.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterTools registers the status, transition, task and tenant tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	t := &tools{app: deps.App}
	if err := registerStatusTools(srv, t); err != nil {
		return err
	}
	if err := registerTransitionTools(srv, t); err != nil {
		return err
	}
	if err := registerTaskTools(srv, t); err != nil {
		return err
	}
	if err := registerTenantTools(srv, t); err != nil {
		return err
	}
	return nil
}
