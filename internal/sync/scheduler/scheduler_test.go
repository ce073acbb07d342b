package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/agroland/agroland-sync/internal/status"
	"github.com/agroland/agroland-sync/internal/sync/scheduler/mocks"
)

const (
	testInterval = time.Hour
	waitTimeout  = 2 * time.Second
	quietPeriod  = 50 * time.Millisecond
)

var testStart = time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)

func waitForRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a run")
	}
}

func assertNoRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
		t.Fatal("unexpected run")
	case <-time.After(quietPeriod):
	}
}

func waitForTimer(t *testing.T, fc *clocktesting.FakeClock) {
	t.Helper()
	require.Eventually(t, fc.HasWaiters, waitTimeout, time.Millisecond)
}

func startScheduler(t *testing.T, s Scheduler) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(context.Background())
	}()
	return errCh
}

func TestScheduler_RunsImmediatelyThenAfterInterval(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)

	runs := make(chan struct{}, 10)
	job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
		runs <- struct{}{}
		return nil
	}).Times(2)

	s := New(job, testInterval, WithClock(fc))
	errCh := startScheduler(t, s)

	waitForRun(t, runs)
	waitForTimer(t, fc)

	fc.Step(testInterval - time.Minute)
	assertNoRun(t, runs)

	fc.Step(time.Minute)
	waitForRun(t, runs)
	waitForTimer(t, fc)

	require.NoError(t, s.Stop())
	require.NoError(t, <-errCh)
}

func TestScheduler_IntervalMeasuredFromCompletion(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)
	tracker := status.NewTracker()

	runs := make(chan struct{}, 10)
	gomock.InOrder(
		// the first run outlasts three intervals
		job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
			fc.Step(3 * testInterval)
			runs <- struct{}{}
			return nil
		}),
		job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
			runs <- struct{}{}
			return nil
		}),
	)

	s := New(job, testInterval, WithClock(fc), WithStatusTracker(tracker))
	errCh := startScheduler(t, s)

	waitForRun(t, runs)
	waitForTimer(t, fc)

	next := tracker.Snapshot().NextRunAt
	require.NotNil(t, next)
	assert.Equal(t, testStart.Add(4*testInterval), *next)

	// no catch-up run for the intervals missed while running
	assertNoRun(t, runs)

	fc.Step(testInterval)
	waitForRun(t, runs)
	waitForTimer(t, fc)

	require.NoError(t, s.Stop())
	require.NoError(t, <-errCh)
}

func TestScheduler_JobErrorDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)

	runs := make(chan struct{}, 10)
	gomock.InOrder(
		job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
			runs <- struct{}{}
			return errors.New("feed fetch failed")
		}),
		job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
			runs <- struct{}{}
			return nil
		}),
	)

	s := New(job, testInterval, WithClock(fc))
	errCh := startScheduler(t, s)

	waitForRun(t, runs)
	waitForTimer(t, fc)
	fc.Step(testInterval)
	waitForRun(t, runs)
	waitForTimer(t, fc)

	require.NoError(t, s.Stop())
	require.NoError(t, <-errCh)
}

func TestScheduler_StopLetsInFlightRunFinish(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)

	started := make(chan struct{})
	release := make(chan struct{})
	jobCtxErr := make(chan error, 1)

	job.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-release
		jobCtxErr <- ctx.Err()
		return nil
	}).Times(1)

	s := New(job, testInterval, WithClock(fc))
	errCh := startScheduler(t, s)

	select {
	case <-started:
	case <-time.After(waitTimeout):
		t.Fatal("run did not start")
	}

	stopped := make(chan error, 1)
	go func() {
		stopped <- s.Stop()
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was in flight")
	case <-time.After(quietPeriod):
	}

	close(release)

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Stop did not return after the run finished")
	}
	require.NoError(t, <-errCh)
	assert.NoError(t, <-jobCtxErr)
	assert.False(t, fc.HasWaiters())
}

func TestScheduler_ContextCancellationStops(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)

	runs := make(chan struct{}, 1)
	job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
		runs <- struct{}{}
		return nil
	}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(job, testInterval, WithClock(fc))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	waitForRun(t, runs)
	waitForTimer(t, fc)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	s := New(mocks.NewMockJob(ctrl), testInterval)

	assert.NoError(t, s.Stop())
}

func TestScheduler_NoRunWhenStoppedEarly(t *testing.T) {
	t.Parallel()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		stopBefore bool
	}{
		{
			name: "context already cancelled",
			ctx:  cancelledCtx,
		},
		{
			name:       "stop called before start",
			ctx:        context.Background(),
			stopBefore: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// no Run expectation: any call fails the test
			ctrl := gomock.NewController(t)
			fc := clocktesting.NewFakeClock(testStart)
			tracker := status.NewTracker()
			s := New(mocks.NewMockJob(ctrl), testInterval, WithClock(fc), WithStatusTracker(tracker))

			if tt.stopBefore {
				require.NoError(t, s.Stop())
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- s.Start(tt.ctx)
			}()

			select {
			case err := <-errCh:
				require.NoError(t, err)
			case <-time.After(waitTimeout):
				t.Fatal("scheduler did not return")
			}
			assert.False(t, fc.HasWaiters())
			assert.Nil(t, tracker.Snapshot().NextRunAt)
			require.NoError(t, s.Stop())
		})
	}
}

func TestScheduler_SecondStartRejected(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)
	fc := clocktesting.NewFakeClock(testStart)

	runs := make(chan struct{}, 1)
	job.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
		runs <- struct{}{}
		return nil
	}).Times(1)

	s := New(job, testInterval, WithClock(fc))
	errCh := startScheduler(t, s)
	waitForRun(t, runs)
	waitForTimer(t, fc)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, s.Stop())
	require.NoError(t, <-errCh)
}
