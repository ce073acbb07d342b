// Package app wires configuration, persistence, the supplier feed and the
// HTTP listener into a runnable sync service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agroland/agroland-sync/internal/config"
	pkgsync "github.com/agroland/agroland-sync/internal/sync"
)

// SyncApp encapsulates all components needed to run the sync service
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	// httpServer is nil when the listener is disabled
	httpServer *http.Server
	clock      interface{ Now() time.Time }
}

// Run starts the scheduler and the HTTP listener and blocks until ctx is
// cancelled or one of them fails. An in-flight run finishes before Run returns.
func (app *SyncApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.components.Scheduler.Start(gctx)
	})

	if app.httpServer != nil {
		g.Go(func() error {
			slog.Info("Server listening", "address", app.httpServer.Addr)
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		if err := app.components.Scheduler.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", "error", err)
		}

		if app.httpServer == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultGracefulTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// RunOnce performs a single run that ignores the once-per-day gate
func (app *SyncApp) RunOnce(ctx context.Context) (*pkgsync.Report, error) {
	_, report, err := app.components.Orchestrator.ForceRun(ctx, pkgsync.State{}, app.clock.Now())
	return report, err
}

// Close releases the database pool and flushes telemetry
func (app *SyncApp) Close(ctx context.Context) error {
	var errs []error
	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down telemetry: %w", err))
		}
	}
	if app.components.Pool != nil {
		app.components.Pool.Close()
	}
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server, or nil when the listener is disabled
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the wired components
func (app *SyncApp) GetComponents() *AppComponents {
	return app.components
}
