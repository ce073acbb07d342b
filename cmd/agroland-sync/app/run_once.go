package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncapp "github.com/agroland/agroland-sync/internal/app"
)

func newRunOnceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single sync now and exit",
		Long: `Run a single sync regardless of whether one already completed today, print
the run summary as JSON and exit. The exit status is non-zero when the feed
could not be fetched; failures of individual products only show in the summary.`,
		RunE: runOnce,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	syncApp, stop, err := startService(ctx, cmd, syncapp.WithAddress(""))
	if err != nil {
		return err
	}
	defer stop()

	report, err := syncApp.RunOnce(ctx)
	if report != nil {
		output, marshalErr := json.MarshalIndent(report.Summary(), "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("failed to format run summary: %w", marshalErr)
		}
		if _, writeErr := fmt.Fprintln(cmd.OutOrStdout(), string(output)); writeErr != nil {
			return writeErr
		}
	}
	return err
}
