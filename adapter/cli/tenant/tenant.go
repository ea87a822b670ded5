package tenant

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
)

// Cmd is the tenant command group
var Cmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the starter workflow",
	Long: `Create the starter workflow (To Do, In Progress, Review, Done, Cancelled)
for the tenant. Tenants that already have statuses are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, scope, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		created, err := app.Seeder.Seed(cmd.Context(), scope)
		if err != nil {
			return fmt.Errorf("failed to seed tenant: %w", err)
		}
		if !created {
			cli.Printf(cmd, "Tenant %s already has statuses, nothing to do.\n", scope.TenantID)
			return nil
		}
		cli.Printf(cmd, "Starter workflow created for tenant %s\n", scope.TenantID)
		return nil
	},
}

func init() {
	Cmd.AddCommand(seedCmd)
}
