package status

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/internal/workflow/application/services"
)

// Cmd is the status command group
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Manage workflow statuses",
	Long:  `Create, order, and connect the statuses tasks move through.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(defaultCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(reorderCmd)
	Cmd.AddCommand(setDefaultCmd)
	Cmd.AddCommand(matrixCmd)
	Cmd.AddCommand(availableCmd)
	Cmd.AddCommand(setTransitionsCmd)
}

func printStatus(cmd *cobra.Command, s services.StatusDTO) error {
	if cli.JSONOutput() {
		return cli.PrintJSON(cmd, s)
	}
	cli.Printf(cmd, "%s %s\n", s.ID, s.Name)
	cli.Printf(cmd, "  slug:     %s\n", s.Slug)
	cli.Printf(cmd, "  category: %s\n", s.Category)
	cli.Printf(cmd, "  order:    %d\n", s.Order)
	if s.Color != "" {
		cli.Printf(cmd, "  color:    %s\n", s.Color)
	}
	if s.Icon != "" {
		cli.Printf(cmd, "  icon:     %s\n", s.Icon)
	}
	if s.IsDefault {
		cli.Printf(cmd, "  default:  yes\n")
	}
	if len(s.AllowedTransitions) == 0 {
		cli.Printf(cmd, "  moves to: any status\n")
	} else {
		cli.Printf(cmd, "  moves to: %d status(es)\n", len(s.AllowedTransitions))
	}
	return nil
}

func printStatusList(cmd *cobra.Command, statuses []services.StatusDTO) error {
	if cli.JSONOutput() {
		return cli.PrintJSON(cmd, statuses)
	}
	if len(statuses) == 0 {
		cli.Printf(cmd, "No statuses. Run 'flowboard tenant seed' to create the starter workflow.\n")
		return nil
	}
	for _, s := range statuses {
		marker := " "
		if s.IsDefault {
			marker = "*"
		}
		cli.Printf(cmd, "%s %2d  %-16s %-16s %-12s %s\n", marker, s.Order, s.Name, s.Slug, s.Category, s.ID)
	}
	return nil
}
