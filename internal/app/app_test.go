package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/agroland/agroland-sync/internal/feed"
	feedmocks "github.com/agroland/agroland-sync/internal/feed/mocks"
	"github.com/agroland/agroland-sync/internal/status"
	"github.com/agroland/agroland-sync/internal/store"
	storemocks "github.com/agroland/agroland-sync/internal/store/mocks"
	pkgsync "github.com/agroland/agroland-sync/internal/sync"
)

func newTestApp(t *testing.T, fetcher feed.Fetcher, s store.ProductStore, clk *clocktesting.FakeClock) *SyncApp {
	t.Helper()

	app, err := NewSyncApp(context.Background(),
		WithConfig(createValidTestConfig()),
		WithStore(s),
		WithFetcher(fetcher),
		WithAddress(""),
		WithClock(clk),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func TestSyncApp_RunOnce(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	fetcher := feedmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).Return([]feed.Product{
		{SupplierID: "S-1", Name: "Sekator", EAN: "5901234123457", NetPrice: "100", VATRate: "23", Quantity: "3"},
	}, nil)

	s := storemocks.NewMockProductStore(ctrl)
	s.EXPECT().UpsertProduct(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p store.Product) (store.Outcome, error) {
			assert.Equal(t, "5901234123457", p.Identity)
			assert.Equal(t, "120", p.SaleNet.String())
			return store.OutcomeInserted, nil
		})
	s.EXPECT().UpdateProductDescription(gomock.Any(), "5901234123457", gomock.Any()).Return(nil)

	clk := clocktesting.NewFakeClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	app := newTestApp(t, fetcher, s, clk)

	report, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Forced)
	assert.Equal(t, 1, report.Considered)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.Failed)

	snap := app.GetComponents().Tracker.Snapshot()
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, status.SyncPhaseComplete, snap.LastRun.Phase)
}

func TestSyncApp_RunOnce_FetchFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	fetcher := feedmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).Return(nil, &feed.TransportError{Err: errors.New("connection refused")})

	app := newTestApp(t, fetcher, storemocks.NewMockProductStore(ctrl), clocktesting.NewFakeClock(time.Now()))

	_, err := app.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgsync.ErrFetchFailed)
}

func TestSyncApp_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetched := make(chan struct{})
	fetcher := feedmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).DoAndReturn(func(context.Context) ([]feed.Product, error) {
		close(fetched)
		return nil, nil
	})

	clk := clocktesting.NewFakeClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	app := newTestApp(t, fetcher, storemocks.NewMockProductStore(ctrl), clk)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, "2026-05-04", app.GetComponents().Runner.State().LastFullSync.Format(time.DateOnly))
}
