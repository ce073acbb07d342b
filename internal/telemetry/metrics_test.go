package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSyncMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != SyncMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.runDuration)
		assert.NotNil(t, metrics.productsTotal)
		assert.NotNil(t, metrics.stepFailures)
		assert.NotNil(t, metrics.lastRunItems)
	})
}

func TestSyncMetrics_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var metrics *SyncMetrics
	ctx := context.Background()

	// None of these should panic
	metrics.RecordRun(ctx, time.Second, RunOutcomeCompleted)
	metrics.RecordFeedSize(ctx, 10)
	metrics.RecordProduct(ctx, "inserted")
	metrics.RecordStepFailure(ctx, "image")
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRun(ctx, 42*time.Second, RunOutcomeCompleted)
	metrics.RecordFeedSize(ctx, 3)
	metrics.RecordProduct(ctx, "inserted")
	metrics.RecordProduct(ctx, "inserted")
	metrics.RecordProduct(ctx, "updated")
	metrics.RecordStepFailure(ctx, "image")

	found := collectSyncMetrics(t, reader)

	duration, ok := found["agroland_sync_run_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 42.0, hist.DataPoints[0].Sum, 0.001)
	outcome, _ := hist.DataPoints[0].Attributes.Value(attribute.Key("outcome"))
	assert.Equal(t, RunOutcomeCompleted, outcome.AsString())

	products, ok := found["agroland_sync_products_total"]
	require.True(t, ok)
	sum, ok := products.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"inserted": 2, "updated": 1}, byOutcome)

	failures, ok := found["agroland_sync_step_failures_total"]
	require.True(t, ok)
	failureSum, ok := failures.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failureSum.DataPoints, 1)
	assert.Equal(t, int64(1), failureSum.DataPoints[0].Value)

	size, ok := found["agroland_sync_last_run_products"]
	require.True(t, ok)
	gauge, ok := size.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)
}
