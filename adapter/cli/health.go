package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("application not initialized")
		}
		overall := app.Health.Check(cmd.Context())
		build := CurrentBuild()
		if JSONOutput() {
			return PrintJSON(cmd, struct {
				Build BuildInfo `json:"build"`
				observability.OverallHealth
			}{build, overall})
		}

		Printf(cmd, "%s: %s\n", build, overall.Status)
		names := make([]string, 0, len(overall.Checks))
		for name := range overall.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			result := overall.Checks[name]
			Printf(cmd, "  %-10s %s %s\n", name, result.Status, result.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
