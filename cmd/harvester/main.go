// Command harvester scrapes configured news listings for defence and
// security headlines and prints or serves the ranked, merged result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "harvester",
		Short: "Breaking-news harvester: discover, enrich, merge and rank headlines",
		Long: `Scan a configured set of news listings for headlines matching a keyword
set, enrich each story from its article page, merge near-duplicates across
sources and rank them by keyword relevance and recency.

Configuration is read from harvester.yaml (or --config) with HARVESTER_*
environment overrides.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./harvester.yaml or ./configs/harvester.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(sourcesCmd())

	return root
}
