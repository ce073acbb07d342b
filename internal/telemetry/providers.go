package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// otlpPushInterval is how often the OTLP reader pushes collected metrics
const otlpPushInterval = 60 * time.Second

// newResource describes this service to both providers. resource.New is used
// instead of merging with resource.Default to avoid schema URL conflicts.
func newResource(ctx context.Context, s settings) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// newTracerProvider batches spans into exporter, or into an OTLP HTTP exporter
// when exporter is nil. Tracing switched off yields a no-op provider.
func newTracerProvider(
	ctx context.Context,
	s settings,
	res *resource.Resource,
	exporter sdktrace.SpanExporter,
) (trace.TracerProvider, error) {
	if !s.tracing {
		return tracenoop.NewTracerProvider(), nil
	}

	if exporter == nil {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		var err error
		if exporter, err = otlptracehttp.New(ctx, opts...); err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
	}

	slog.Info("Tracing initialized", "endpoint", s.endpoint, "sampling_ratio", s.sampling)
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.sampling))),
	), nil
}

// newMeterProvider reads metrics either into a fresh Prometheus registry,
// which is returned for the /metrics handler, or on a timer into OTLP.
// Metrics switched off yield a no-op provider and a nil registry.
func newMeterProvider(
	ctx context.Context,
	s settings,
	res *resource.Resource,
) (metric.MeterProvider, *prometheus.Registry, error) {
	if !s.metrics {
		return metricnoop.NewMeterProvider(), nil, nil
	}

	var (
		reader   sdkmetric.Reader
		registry *prometheus.Registry
	)
	switch s.exporter {
	case ExporterPrometheus:
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		reader = exporter
	default:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(otlpPushInterval))
	}

	slog.Info("Metrics initialized", "exporter", s.exporter, "endpoint", s.endpoint)
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), registry, nil
}
