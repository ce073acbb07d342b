package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroland/agroland-sync/internal/status"
	pkgsync "github.com/agroland/agroland-sync/internal/sync"
	"github.com/agroland/agroland-sync/internal/sync/scheduler"
	"github.com/agroland/agroland-sync/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Orchestrator performs individual runs
	Orchestrator *pkgsync.Orchestrator

	// Runner carries the day-gate state between scheduled runs
	Runner *pkgsync.Runner

	// Scheduler drives the Runner
	Scheduler scheduler.Scheduler

	// Tracker exposes run progress to the status endpoint
	Tracker *status.Tracker

	// Telemetry owns the meter and tracer providers
	Telemetry *telemetry.Telemetry

	// Pool is the database connection pool (nil when a store was injected)
	Pool *pgxpool.Pool
}
