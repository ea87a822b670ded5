package task

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create tasks and move them through the workflow.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

func printTask(cmd *cobra.Command, t *queries.TaskDTO) error {
	if cli.JSONOutput() {
		return cli.PrintJSON(cmd, t)
	}
	cli.Printf(cmd, "%s %s\n", t.ID, t.Title)
	if t.StatusID != nil {
		cli.Printf(cmd, "  status:    %s\n", *t.StatusID)
	}
	if t.CompletedAt != nil {
		cli.Printf(cmd, "  completed: %s\n", t.CompletedAt.Format(time.RFC3339))
	}
	cli.Printf(cmd, "  updated:   %s\n", t.UpdatedAt.Format(time.RFC3339))
	return nil
}
