package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

var (
	updName     string
	updSlug     string
	updColor    string
	updIcon     string
	updCategory string
	updDefault  bool
	updTargets  []string
)

var updateCmd = &cobra.Command{
	Use:   "update [id|slug]",
	Short: "Update a status",
	Long: `Update the given fields of a status. Only flags that are passed change.
Renaming regenerates the slug unless --slug is given.

Examples:
  flowboard status update review --name "Code Review"
  flowboard status update blocked --to in-progress --to todo
  flowboard status update blocked --to ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		id, err := cli.ResolveStatusID(cmd, app, scope, args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var in services.UpdateStatusInput
		if flags.Changed("name") {
			in.Name = &updName
		}
		if flags.Changed("slug") {
			in.Slug = &updSlug
		}
		if flags.Changed("color") {
			in.Color = &updColor
		}
		if flags.Changed("icon") {
			in.Icon = &updIcon
		}
		if flags.Changed("category") {
			in.Category = &updCategory
		}
		if flags.Changed("default") {
			in.IsDefault = &updDefault
		}
		if flags.Changed("to") {
			ids, err := cli.ResolveStatusIDs(cmd, app, scope, nonEmpty(updTargets))
			if err != nil {
				return err
			}
			in.AllowedTransitions = &ids
		}

		s, err := app.Lifecycle.Update(cmd.Context(), scope, id, in)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return printStatus(cmd, s)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id|slug]",
	Short: "Delete a status",
	Long: `Delete a status. Statuses still used by tasks and the last remaining
status cannot be deleted. Deleting the default promotes the first remaining
status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		id, err := cli.ResolveStatusID(cmd, app, scope, args[0])
		if err != nil {
			return err
		}
		if err := app.Lifecycle.Delete(cmd.Context(), scope, id); err != nil {
			return fmt.Errorf("failed to delete status: %w", err)
		}
		cli.Printf(cmd, "Status deleted: %s\n", id)
		return nil
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder [id|slug]...",
	Short: "Reorder statuses",
	Long: `Reorder the board. Every status of the tenant must be listed exactly once.

Example:
  flowboard status reorder todo in-progress review done cancelled`,
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
		statuses, err := app.Lifecycle.Reorder(cmd.Context(), scope, ids)
		if err != nil {
			return fmt.Errorf("failed to reorder statuses: %w", err)
		}
		return printStatusList(cmd, statuses)
	},
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default [id|slug]",
	Short: "Make a status the default",
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
		s, err := app.Lifecycle.SetDefault(cmd.Context(), scope, id)
		if err != nil {
			return fmt.Errorf("failed to set default status: %w", err)
		}
		return printStatus(cmd, s)
	},
}

// nonEmpty drops blank refs so that --to "" clears the edge set.
func nonEmpty(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

func init() {
	updateCmd.Flags().StringVar(&updName, "name", "", "new name")
	updateCmd.Flags().StringVar(&updSlug, "slug", "", "new slug")
	updateCmd.Flags().StringVar(&updColor, "color", "", "hex color")
	updateCmd.Flags().StringVar(&updIcon, "icon", "", "icon name")
	updateCmd.Flags().StringVarP(&updCategory, "category", "c", "", "category (open, in_progress, closed)")
	updateCmd.Flags().BoolVar(&updDefault, "default", false, "make this the default status")
	updateCmd.Flags().StringSliceVar(&updTargets, "to", nil, "allowed target status (id or slug, repeatable; \"\" allows any)")
}
