package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync loop",
		Long: `Run the sync loop: an immediate run, then one run per interval measured from
the end of the previous run. At most one run per calendar day imports products.

The health, readiness, status and metrics endpoints are served on the configured
address unless it is set to "-".`,
		RunE: runServe,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	syncApp, stop, err := startService(ctx, cmd)
	if err != nil {
		return err
	}
	defer stop()

	slog.Info("Starting agroland-sync",
		"supplier", syncApp.GetConfig().Supplier.BaseURL,
		"interval", syncApp.GetConfig().Sync.GetInterval().String(),
	)

	if err := syncApp.Run(ctx); err != nil {
		slog.Error("Service stopped with error", "error", err)
		return err
	}

	slog.Info("Shutdown complete")
	return nil
}

// contextOrBackground returns the command context, which is nil when a
// command is executed without ExecuteContext
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
