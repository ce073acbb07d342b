package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	apimocks "github.com/agroland/agroland-sync/internal/api/mocks"
	"github.com/agroland/agroland-sync/internal/config"
	feedmocks "github.com/agroland/agroland-sync/internal/feed/mocks"
	imagesmocks "github.com/agroland/agroland-sync/internal/images/mocks"
	storemocks "github.com/agroland/agroland-sync/internal/store/mocks"
)

func createValidTestConfig() *config.Config {
	return &config.Config{
		Supplier: config.SupplierConfig{
			BaseURL: "https://feed.example.com",
			APIKey:  "secret",
		},
		Sync: config.SyncConfig{
			Interval:      "4h",
			MarginPercent: 20,
			Timezone:      "Europe/Warsaw",
		},
	}
}

func TestBaseConfig_Defaults(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithConfig(createValidTestConfig()))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerAddress, built.address)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	assert.NotNil(t, built.clock)
}

func TestBaseConfig_RequiresConfig(t *testing.T) {
	t.Parallel()

	built, err := baseConfig()
	require.Error(t, err)
	assert.Nil(t, built)
}

func TestBaseConfig_DisabledListenerFromConfig(t *testing.T) {
	t.Parallel()

	cfg := createValidTestConfig()
	cfg.Server.Address = "-"

	built, err := baseConfig(WithConfig(cfg))
	require.NoError(t, err)
	assert.Empty(t, built.address)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "port only", address: ":9090", want: ":9090"},
		{name: "localhost", address: "localhost:8090", want: "localhost:8090"},
		{name: "ip", address: "127.0.0.1:8090", want: "127.0.0.1:8090"},
		{name: "empty disables", address: "", want: ""},
		{name: "missing port", address: ":", wantErr: true},
		{name: "no colon", address: "8090", wantErr: true},
		{name: "bad host", address: "not-an-ip:8090", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			built, err := baseConfig(WithConfig(createValidTestConfig()), WithAddress(tt.address))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, built)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, built.address)
		})
	}
}

func TestWithClock_Nil(t *testing.T) {
	t.Parallel()

	_, err := baseConfig(WithConfig(createValidTestConfig()), WithClock(nil))
	require.Error(t, err)
}

func TestNewSyncApp_RequiresDatabaseWithoutStore(t *testing.T) {
	t.Parallel()

	app, err := NewSyncApp(context.Background(), WithConfig(createValidTestConfig()))
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "database configuration is required")
}

func TestNewSyncApp_MissingAPIKey(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := createValidTestConfig()
	cfg.Supplier.APIKey = ""
	cfg.Supplier.APIKeyFile = "/nonexistent/api-key"

	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithStore(storemocks.NewMockProductStore(ctrl)),
	)
	require.Error(t, err)
	assert.Nil(t, app)
}

func TestNewSyncApp_WithInjectedComponents(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	app, err := NewSyncApp(context.Background(),
		WithConfig(createValidTestConfig()),
		WithStore(storemocks.NewMockProductStore(ctrl)),
		WithFetcher(feedmocks.NewMockFetcher(ctrl)),
		WithDownloader(imagesmocks.NewMockDownloader(ctrl)),
		WithAddress(":0"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	components := app.GetComponents()
	assert.NotNil(t, components.Orchestrator)
	assert.NotNil(t, components.Runner)
	assert.NotNil(t, components.Scheduler)
	assert.NotNil(t, components.Tracker)
	assert.NotNil(t, components.Telemetry)
	assert.Nil(t, components.Pool)

	server := app.GetHTTPServer()
	require.NotNil(t, server)
	assert.Equal(t, ":0", server.Addr)
	assert.Equal(t, defaultReadTimeout, server.ReadTimeout)

	// metrics are off by default so /metrics is not mounted
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewSyncApp_InjectedReadiness(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	readiness := apimocks.NewMockReadinessChecker(ctrl)
	readiness.EXPECT().CheckReadiness(gomock.Any()).Return(context.DeadlineExceeded)

	app, err := NewSyncApp(context.Background(),
		WithConfig(createValidTestConfig()),
		WithStore(storemocks.NewMockProductStore(ctrl)),
		WithFetcher(feedmocks.NewMockFetcher(ctrl)),
		WithReadiness(readiness),
		WithClock(clocktesting.NewFakeClock(time.Now())),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewSyncApp_ListenerDisabled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	app, err := NewSyncApp(context.Background(),
		WithConfig(createValidTestConfig()),
		WithStore(storemocks.NewMockProductStore(ctrl)),
		WithFetcher(feedmocks.NewMockFetcher(ctrl)),
		WithAddress(""),
	)
	require.NoError(t, err)
	assert.Nil(t, app.GetHTTPServer())
	assert.Same(t, app.config, app.GetConfig())
}
