package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/commands"
)

var moveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task to another status",
	Long: `Move a task to another status. The move is rejected when the current
status does not allow the target.

Example:
  flowboard task move 3f2c... done`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task ID: %w", err)
		}
		statusID, err := cli.ResolveStatusID(cmd, app, scope, args[1])
		if err != nil {
			return err
		}

		result, err := app.ChangeTaskStatusHandler.Handle(cmd.Context(), scope, commands.ChangeTaskStatusCommand{
			TaskID:   taskID,
			StatusID: statusID,
		})
		if err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd, result)
		}
		if !result.Changed {
			cli.Printf(cmd, "Task already in status %s\n", result.StatusID)
			return nil
		}
		cli.Printf(cmd, "Task moved: %s -> %s\n", result.TaskID, result.StatusID)
		if result.CompletedAt != nil {
			cli.Printf(cmd, "  completed: %s\n", result.CompletedAt.Format(time.RFC3339))
		}
		return nil
	},
}
