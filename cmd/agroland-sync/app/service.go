package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	syncapp "github.com/agroland/agroland-sync/internal/app"
	"github.com/agroland/agroland-sync/internal/config"
	"github.com/agroland/agroland-sync/pkg/versions"
)

// loadConfig reads the file named by the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// startService loads the configuration, switches logging to the configured
// sinks, takes the instance lock and builds the SyncApp. The returned
// function undoes all of it.
func startService(ctx context.Context, cmd *cobra.Command, opts ...syncapp.SyncAppOption) (*syncapp.SyncApp, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logCloser, err := configureLogging(cfg, debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	lockPath, err := cfg.GetLockFile()
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	unlock, err := acquireLock(lockPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.Version
	}

	syncApp, err := syncapp.NewSyncApp(ctx, append([]syncapp.SyncAppOption{syncapp.WithConfig(cfg)}, opts...)...)
	if err != nil {
		unlock()
		_ = logCloser.Close()
		return nil, nil, fmt.Errorf("failed to build application: %w", err)
	}

	stop := func() {
		if err := syncApp.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Error("Failed to close application", "error", err)
		}
		unlock()
		_ = logCloser.Close()
	}
	return syncApp, stop, nil
}
