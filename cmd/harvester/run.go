package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runPublish bool
	runSource  string
	runPretty  bool
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one aggregation and print the ranked headlines as JSON",
		Args:  cobra.NoArgs,
		RunE:  runOnce,
	}

	cmd.Flags().BoolVar(&runPublish, "publish", false, "send ranked articles to the configured publishers")
	cmd.Flags().StringVarP(&runSource, "source", "s", "", "scan only this source (id or name)")
	cmd.Flags().BoolVar(&runPretty, "pretty", false, "indent JSON output")

	return cmd
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath, runSource)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := a.pipeline.Run(ctx)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if runPretty {
		enc.SetIndent("", "  ")
	}
	if runErr != nil {
		_ = enc.Encode(scrapeFailed)
		return fmt.Errorf("aggregation: %w", runErr)
	}
	if err := enc.Encode(okEnvelope(res.Articles, res.CapturedAt)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if runPublish {
		if err := a.publish(ctx, res); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}
