package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set by the release pipeline via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vecbase %s (commit %s, built %s)\n", version, commit, date)
		fmt.Printf("  go: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
