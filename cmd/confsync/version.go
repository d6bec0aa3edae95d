package main

import (
	"fmt"

	"github.com/spf13/cobra"

	confhttp "github.com/artpar/confsync/adapters/http"
)

var (
	// Set via ldflags at build time
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("confsync %s\n", version)
		fmt.Printf("  commit:   %s\n", commit)
		fmt.Printf("  built:    %s\n", buildDate)
		fmt.Printf("  protocol: %s\n", confhttp.ProtocolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
