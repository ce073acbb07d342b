package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/agroland/agroland-sync/sync"
)

// Run outcomes recorded on the run duration histogram
const (
	RunOutcomeCompleted   = "completed"
	RunOutcomeFetchFailed = "fetch_failed"
	RunOutcomeSkipped     = "skipped"
)

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	runDuration   metric.Float64Histogram
	productsTotal metric.Int64Counter
	stepFailures  metric.Int64Counter
	lastRunItems  metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"agroland_sync_run_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600),
	)
	if err != nil {
		return nil, err
	}

	productsTotal, err := meter.Int64Counter(
		"agroland_sync_products_total",
		metric.WithDescription("Products processed, by store outcome"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, err
	}

	stepFailures, err := meter.Int64Counter(
		"agroland_sync_step_failures_total",
		metric.WithDescription("Failed per-product steps (core, description, image)"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	lastRunItems, err := meter.Int64Gauge(
		"agroland_sync_last_run_products",
		metric.WithDescription("Number of products in the feed at the last completed fetch"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runDuration:   runDuration,
		productsTotal: productsTotal,
		stepFailures:  stepFailures,
		lastRunItems:  lastRunItems,
	}, nil
}

// RecordRun records the duration of a run and how it ended
func (m *SyncMetrics) RecordRun(ctx context.Context, duration time.Duration, outcome string) {
	if m == nil || m.runDuration == nil {
		return
	}

	m.runDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordFeedSize records the number of products returned by a successful fetch
func (m *SyncMetrics) RecordFeedSize(ctx context.Context, count int) {
	if m == nil || m.lastRunItems == nil {
		return
	}

	m.lastRunItems.Record(ctx, int64(count))
}

// RecordProduct counts one processed product by its store outcome
// (inserted, updated, untracked or failed)
func (m *SyncMetrics) RecordProduct(ctx context.Context, outcome string) {
	if m == nil || m.productsTotal == nil {
		return
	}

	m.productsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordStepFailure counts one failed per-product step
func (m *SyncMetrics) RecordStepFailure(ctx context.Context, step string) {
	if m == nil || m.stepFailures == nil {
		return
	}

	m.stepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}
