// Package telemetry provides OpenTelemetry instrumentation for the sync service.
// Traces go to an OTLP collector; metrics go either to OTLP or to a Prometheus
// registry scraped from the /metrics endpoint.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName identifies the service when serviceName is unset
	DefaultServiceName = "agroland-sync"

	// DefaultEndpoint is the OTLP HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling applies when tracing is on and sampling is unset.
	// A run opens one span per product, so it stays low.
	DefaultSampling = 0.05

	// ExporterOTLP pushes metrics to the collector
	ExporterOTLP = "otlp"

	// ExporterPrometheus serves metrics on /metrics
	ExporterPrometheus = "prometheus"
)

// Config is the telemetry block of the service configuration file
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector "host:port"; /v1/traces and /v1/metrics are appended
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig switches run and product spans on
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the trace ratio in [0, 1]. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig switches the agroland_sync_* instruments on
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" (default) or "prometheus"
	Exporter string `yaml:"exporter,omitempty"`
}

// settings is a Config with every default filled in
type settings struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool

	tracing  bool
	sampling float64

	metrics  bool
	exporter string
}

// resolve fills in defaults. A nil or disabled Config resolves to nothing enabled.
func (c *Config) resolve() settings {
	s := settings{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
		sampling:       DefaultSampling,
		exporter:       ExporterOTLP,
	}
	if c == nil || !c.Enabled {
		return s
	}

	if c.ServiceName != "" {
		s.serviceName = c.ServiceName
	}
	if c.ServiceVersion != "" {
		s.serviceVersion = c.ServiceVersion
	}
	if c.Endpoint != "" {
		s.endpoint = c.Endpoint
	}
	s.insecure = c.Insecure

	if c.Tracing != nil && c.Tracing.Enabled {
		s.tracing = true
		if c.Tracing.Sampling != 0 {
			s.sampling = c.Tracing.Sampling
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		s.metrics = true
		if c.Metrics.Exporter != "" {
			s.exporter = c.Metrics.Exporter
		}
	}
	return s
}

// Validate rejects a sampling ratio outside [0, 1] and unknown metric exporters.
// Blocks that are switched off are not checked.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if t := c.Tracing; t != nil && t.Enabled && (t.Sampling < 0 || t.Sampling > 1) {
		errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %g", t.Sampling))
	}
	if m := c.Metrics; m != nil && m.Enabled {
		switch m.Exporter {
		case "", ExporterOTLP, ExporterPrometheus:
		default:
			errs = append(errs, fmt.Errorf("metrics: unsupported exporter %q, want %q or %q",
				m.Exporter, ExporterOTLP, ExporterPrometheus))
		}
	}
	return errors.Join(errs...)
}
