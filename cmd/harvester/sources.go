package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/seema-khobor/internal/config"
)

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured news sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tURL")
			for _, src := range cfg.Sources {
				typ := src.Type
				if typ == "" {
					typ = "html"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.ID, src.DisplayName(), typ, src.SourceURL)
			}
			return w.Flush()
		},
	}
}
