// Package cmd defines the CLI commands for the metadata cache executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata-cache",
		Short: "Background Spotify album metadata discovery and ingestion",
		Long: `metadata-cache runs a background worker that accepts album ids,
transitively discovers more through the artists credited on their tracks,
fetches full metadata from the Spotify Web API, and persists it with an
expiring freshness gate so nothing is refetched before its retention lapses.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the entry point invoked by main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
