package commands

import (
	"context"
	"fmt"
	"os"
	"rapthor-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

// exitCode is set by commands whose run completed but reported a failure.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "rapthor-cli",
	Short: "rapthor-cli extracts purchase orders from the supplier portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "rapthor.json5", "The configuration file, <name>.local.json5 overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages.")
}

// ExecuteContext runs the command line and returns the process exit code,
// leaving the exit to the caller so deferred telemetry is flushed first.
func ExecuteContext(ctx context.Context) int {
	exitCode = 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}
