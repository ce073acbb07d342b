package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"k8s.io/utils/clock"

	"github.com/agroland/agroland-sync/internal/api"
	"github.com/agroland/agroland-sync/internal/config"
	"github.com/agroland/agroland-sync/internal/feed"
	"github.com/agroland/agroland-sync/internal/httpclient"
	"github.com/agroland/agroland-sync/internal/images"
	"github.com/agroland/agroland-sync/internal/status"
	"github.com/agroland/agroland-sync/internal/store"
	pkgsync "github.com/agroland/agroland-sync/internal/sync"
	"github.com/agroland/agroland-sync/internal/sync/scheduler"
	"github.com/agroland/agroland-sync/internal/telemetry"
	"github.com/agroland/agroland-sync/internal/upsert"
)

const (
	instrumentationName    = "github.com/agroland/agroland-sync"
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultGracefulTimeout = 30 * time.Second
)

// SyncAppOption is a function that configures the sync app builder
type SyncAppOption func(*syncAppConfig) error

// syncAppConfig collects what NewSyncApp needs. Collaborators left nil are
// built from config.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	store      store.ProductStore
	fetcher    feed.Fetcher
	downloader images.Downloader
	readiness  api.ReadinessChecker
	telemetry  *telemetry.Telemetry
	clock      clock.Clock

	// HTTP server options; an empty address disables the listener
	address        string
	addressSet     bool
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// set when the builder opened the pool itself
	pool *pgxpool.Pool
}

func baseConfig(opts ...SyncAppOption) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		clock:          clock.RealClock{},
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if !cfg.addressSet {
		cfg.address = cfg.config.Server.GetAddress()
	}

	return cfg, nil
}

// NewSyncApp builds a SyncApp from the given options
func NewSyncApp(ctx context.Context, opts ...SyncAppOption) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		if !cleanupNeeded {
			return
		}
		if cfg.pool != nil {
			cfg.pool.Close()
		}
		if cfg.telemetry != nil {
			_ = cfg.telemetry.Shutdown(context.WithoutCancel(ctx))
		}
	}()

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	if err := buildStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}

	components, err := buildSyncComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}
	components.Telemetry = cfg.telemetry
	components.Pool = cfg.pool

	httpServer, err := buildHTTPServer(cfg, components.Tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		clock:      cfg.clock,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the configured listen address. An empty address
// disables the listener.
func WithAddress(addr string) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.addressSet = true
		if addr == "" {
			cfg.address = ""
			return nil
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStore injects the product store; the database config is then unused
func WithStore(s store.ProductStore) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithFetcher injects the feed fetcher (for testing)
func WithFetcher(f feed.Fetcher) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithDownloader injects the photo downloader (for testing)
func WithDownloader(d images.Downloader) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.downloader = d
		return nil
	}
}

// WithReadiness injects the readiness check served on /readiness
func WithReadiness(r api.ReadinessChecker) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.readiness = r
		return nil
	}
}

// WithTelemetry injects already initialized telemetry. The app shuts it
// down on Close.
func WithTelemetry(t *telemetry.Telemetry) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithClock sets the clock used for scheduling and the day gate
func WithClock(c clock.Clock) SyncAppOption {
	return func(cfg *syncAppConfig) error {
		if c == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// buildStore connects to PostgreSQL unless a store was injected
func buildStore(ctx context.Context, b *syncAppConfig) error {
	if b.store != nil {
		if b.readiness == nil {
			b.readiness = alwaysReady{}
		}
		return nil
	}

	if b.config.Database == nil {
		return fmt.Errorf("database configuration is required")
	}

	connString, err := b.config.Database.GetConnectionString()
	if err != nil {
		return err
	}

	slog.Info("Connecting to database",
		"host", b.config.Database.Host,
		"database", b.config.Database.Database,
	)
	pool, err := store.Connect(ctx, connString, store.PoolOptions{
		MaxConns:       b.config.Database.GetMaxConns(),
		ConnectTimeout: b.config.Database.GetConnectTimeout(),
	})
	if err != nil {
		return err
	}

	b.pool = pool
	b.store = store.NewPostgresStore(pool)
	if b.readiness == nil {
		b.readiness = &poolReadiness{pool: pool}
	}
	return nil
}

// buildSyncComponents builds the feed client, upserter, orchestrator and scheduler
func buildSyncComponents(b *syncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	syncCfg := &b.config.Sync

	if b.fetcher == nil {
		apiKey, err := b.config.Supplier.GetAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to read supplier API key: %w", err)
		}
		b.fetcher = feed.NewClient(
			httpclient.NewDefaultClient(b.config.Supplier.GetTimeout()),
			b.config.Supplier.BaseURL,
			apiKey,
		)
	}

	if b.downloader == nil {
		b.downloader = images.NewHTTPDownloader(
			httpclient.NewDefaultClient(httpclient.DefaultTimeout),
			syncCfg.ImageRequestsPerSecond,
		)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	tracer := b.telemetry.Tracer(instrumentationName)
	tracker := status.NewTracker()

	upserter := upsert.New(b.store, b.downloader,
		upsert.Options{
			MarginPercent:        syncCfg.MarginPercent,
			DescriptionMaxLength: syncCfg.GetDescriptionMaxLength(),
			SourceTag:            syncCfg.GetSourceTag(),
		},
		upsert.WithMetrics(syncMetrics),
		upsert.WithTracer(tracer),
	)

	orchestrator := pkgsync.NewOrchestrator(b.fetcher, upserter,
		pkgsync.WithLocation(syncCfg.GetLocation()),
		pkgsync.WithSyncMetrics(syncMetrics),
		pkgsync.WithTracer(tracer),
		pkgsync.WithStatusTracker(tracker),
	)
	runner := pkgsync.NewRunner(orchestrator, b.clock)
	sched := scheduler.New(runner, syncCfg.GetInterval(),
		scheduler.WithClock(b.clock),
		scheduler.WithStatusTracker(tracker),
	)

	slog.Info("Sync components initialized successfully",
		"interval", syncCfg.GetInterval().String(),
		"margin_percent", syncCfg.MarginPercent,
		"timezone", syncCfg.GetLocation().String(),
	)

	return &AppComponents{
		Orchestrator: orchestrator,
		Runner:       runner,
		Scheduler:    sched,
		Tracker:      tracker,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware. It
// returns nil when the listener is disabled.
func buildHTTPServer(b *syncAppConfig, tracker *status.Tracker) (*http.Server, error) {
	if b.address == "" {
		slog.Info("HTTP listener disabled")
		return nil, nil
	}

	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first to observe every request
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	observability := []func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
	}
	if metricsMiddleware != nil {
		observability = append([]func(http.Handler) http.Handler{metricsMiddleware}, observability...)
	}
	b.middlewares = append(observability, b.middlewares...)

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	router := api.NewServer(b.readiness, tracker, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}

type poolReadiness struct {
	pool *pgxpool.Pool
}

// CheckReadiness pings the database
func (p *poolReadiness) CheckReadiness(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }
