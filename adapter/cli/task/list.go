package task

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/tasks/application/queries"
)

var (
	listStatus    string
	showCompleted bool
	showOpen      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks, optionally filtered by status or completion.

Examples:
  flowboard task list
  flowboard task list --status review
  flowboard task list --completed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		if showCompleted && showOpen {
			return fmt.Errorf("--completed and --open are mutually exclusive")
		}

		query := queries.ListTasksQuery{OnlyCompleted: showCompleted, OnlyOpen: showOpen}
		if listStatus != "" {
			query.StatusID, err = cli.ResolveStatusID(cmd, app, scope, listStatus)
			if err != nil {
				return err
			}
		}

		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), scope, query)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd, tasks)
		}
		if len(tasks) == 0 {
			cli.Printf(cmd, "No tasks found.\n")
			return nil
		}
		for _, t := range tasks {
			mark := "[ ]"
			if t.CompletedAt != nil {
				mark = "[x]"
			}
			statusID := uuid.Nil
			if t.StatusID != nil {
				statusID = *t.StatusID
			}
			cli.Printf(cmd, "%s %s  %s  (%s)\n", mark, t.ID, t.Title, statusID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "only tasks in this status (id or slug)")
	listCmd.Flags().BoolVar(&showCompleted, "completed", false, "only completed tasks")
	listCmd.Flags().BoolVar(&showOpen, "open", false, "only open tasks")
}
