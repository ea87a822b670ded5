package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "dev"
	// Commit is set during build
	Commit = "none"
	// BuildDate is set during build
	BuildDate = "unknown"
)

// BuildInfo describes the running flowboard binary.
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// CurrentBuild returns the metadata stamped into this binary.
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Service:   "flowboard",
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ")"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		build := CurrentBuild()
		if JSONOutput() {
			return PrintJSON(cmd, build)
		}
		Printf(cmd, "%s %s\n", build.Service, build.Version)
		Printf(cmd, "  commit: %s\n", build.Commit)
		Printf(cmd, "  built:  %s\n", build.BuildDate)
		Printf(cmd, "  go:     %s\n", build.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
