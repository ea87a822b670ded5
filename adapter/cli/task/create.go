package task

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
)

var status string

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Long: `Create a task. It starts in the default status unless --status is given.

Examples:
  flowboard task create "Write release notes"
  flowboard task create "Fix login bug" --status in-progress`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}

		statusID := uuid.Nil
		if status != "" {
			statusID, err = cli.ResolveStatusID(cmd, app, scope, status)
			if err != nil {
				return err
			}
		}

		result, err := app.CreateTaskHandler.Handle(cmd.Context(), scope, commands.CreateTaskCommand{
			Title:    args[0],
			StatusID: statusID,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd, result)
		}
		cli.Printf(cmd, "Task created: %s\n", result.TaskID)
		cli.Printf(cmd, "  title:  %s\n", args[0])
		cli.Printf(cmd, "  status: %s\n", result.StatusID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&status, "status", "s", "", "initial status (id or slug)")
}
