// Package main is the entry point for the agroland-sync service.
package main

import (
	"log/slog"
	"os"

	"github.com/agroland/agroland-sync/cmd/agroland-sync/app"
	"github.com/agroland/agroland-sync/internal/logging"
)

func main() {
	// Use stderr to keep stdout clean for commands that output data (e.g., version --format json).
	handler := logging.WithTraceContext(logging.NewHandler(os.Stderr, app.LogLevel(false)))
	slog.SetDefault(slog.New(handler))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
