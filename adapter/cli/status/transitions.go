package status

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the transition matrix",
	Long: `Show, for every status, the statuses a task may move to. A status
without explicit transitions allows moves to any status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		matrix, err := app.Transitions.Matrix(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to load transitions: %w", err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd, matrix)
		}

		statuses, err := app.Lifecycle.List(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}
		names := make(map[uuid.UUID]string, len(statuses))
		for _, s := range statuses {
			names[s.ID] = s.Name
		}
		for _, s := range statuses {
			edges := matrix[s.ID]
			if len(edges) == 0 {
				cli.Printf(cmd, "%-16s -> (any)\n", s.Name)
				continue
			}
			targets := make([]string, 0, len(edges))
			for _, id := range edges {
				targets = append(targets, names[id])
			}
			cli.Printf(cmd, "%-16s -> %s\n", s.Name, strings.Join(targets, ", "))
		}
		return nil
	},
}

var availableCmd = &cobra.Command{
	Use:   "available [id|slug]",
	Short: "List the statuses a task may move to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		id, err := cli.ResolveStatusID(cmd, app, scope, args[0])
		if err != nil {
			return err
		}
		targets, err := app.Transitions.AvailableTargets(cmd.Context(), scope, id)
		if err != nil {
			return fmt.Errorf("failed to load available transitions: %w", err)
		}
		return printStatusList(cmd, targets)
	},
}

var setTransitionsCmd = &cobra.Command{
	Use:   "set-transitions [id|slug] [target]...",
	Short: "Replace the allowed transitions of a status",
	Long: `Replace the statuses a task may move to from the given status.
Passing no targets allows moves to any status.

Examples:
  flowboard status set-transitions todo in-progress cancelled
  flowboard status set-transitions review`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		ids, err := cli.ResolveStatusIDs(cmd, app, scope, args)
		if err != nil {
			return err
		}
		s, err := app.Transitions.SetTransitions(cmd.Context(), scope, ids[0], ids[1:])
		if err != nil {
			return fmt.Errorf("failed to set transitions: %w", err)
		}
		return printStatus(cmd, s)
	},
}
