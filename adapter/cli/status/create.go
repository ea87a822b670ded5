package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

var (
	slug        string
	color       string
	icon        string
	category    string
	order       int
	makeDefault bool
	targets     []string
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a status",
	Long: `Create a status. Without --to, tasks may move from it to any status.

Examples:
  flowboard status create "In Review" --category in_progress --color "#8b5cf6"
  flowboard status create Blocked --to in-progress --to todo
  flowboard status create Backlog --default --order 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}

		in := services.CreateStatusInput{
			Name:      args[0],
			Slug:      slug,
			Color:     color,
			Icon:      icon,
			Category:  category,
			IsDefault: makeDefault,
		}
		if cmd.Flags().Changed("order") {
			in.Order = &order
		}
		if len(targets) > 0 {
			in.AllowedTransitions, err = cli.ResolveStatusIDs(cmd, app, scope, targets)
			if err != nil {
				return err
			}
		}

		s, err := app.Lifecycle.Create(cmd.Context(), scope, in)
		if err != nil {
			return fmt.Errorf("failed to create status: %w", err)
		}
		if !cli.JSONOutput() {
			cli.Printf(cmd, "Status created\n")
		}
		return printStatus(cmd, s)
	},
}

func init() {
	createCmd.Flags().StringVar(&slug, "slug", "", "slug (derived from the name when empty)")
	createCmd.Flags().StringVar(&color, "color", "", "hex color, e.g. #3b82f6")
	createCmd.Flags().StringVar(&icon, "icon", "", "icon name")
	createCmd.Flags().StringVarP(&category, "category", "c", "open", "category (open, in_progress, closed)")
	createCmd.Flags().IntVar(&order, "order", 0, "position on the board (appended when omitted)")
	createCmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default status")
	createCmd.Flags().StringSliceVar(&targets, "to", nil, "allowed target status (id or slug, repeatable)")
}
