// Package main is the entry point for the vecbase CLI.
//
// Usage:
//
//	vecbase [flags] <command> [args]
//
// Commands:
//
//	run       - Insert demo vectors and run a sample query (default)
//	bench     - Internal insert/search benchmark
//	repl      - Interactive session against an in-memory store
//	import    - Bulk-load vectors from npy or sqlite sources
//	snapshot  - Save, load, push and pull store snapshots
//	init      - Interactive config file wizard
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/d65v/vecbase/cmd/vecbase/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
