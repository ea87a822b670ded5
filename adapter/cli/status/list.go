package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List statuses in board order",
	Long: `List the statuses of the tenant in board order. The default status
is marked with '*'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		statuses, err := app.Lifecycle.List(cmd.Context(), scope)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}
		return printStatusList(cmd, statuses)
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id|slug]",
	Short: "Show a status",
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
		s, err := app.Lifecycle.Get(cmd.Context(), scope, id)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		return printStatus(cmd, s)
	},
}

var defaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Show the default status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		s, err := app.Lifecycle.GetDefault(cmd.Context(), scope)
		if err != nil {
			return fmt.Errorf("failed to get default status: %w", err)
		}
		return printStatus(cmd, s)
	},
}
