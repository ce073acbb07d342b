// Package scheduler runs a job immediately and then again one interval after
// each run completes. Runs never overlap and missed intervals are never caught
// up: a run that outlasts the interval is followed by a full interval of idle.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/agroland/agroland-sync/internal/status"
)

// Job is the unit of work performed on each tick
//
//go:generate mockgen -destination=mocks/mock_job.go -package=mocks -source=scheduler.go Job
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler manages the run loop lifecycle
type Scheduler interface {
	// Start runs the loop until the context is cancelled or Stop is called.
	// It returns at once, without running the job, when ctx is already done
	// or Stop came first.
	Start(ctx context.Context) error

	// Stop cancels the pending tick and waits for an in-flight run to finish
	Stop() error
}

type defaultScheduler struct {
	job      Job
	interval time.Duration
	clock    clock.Clock
	tracker  *status.Tracker

	// Lifecycle management
	mu         sync.Mutex
	started    bool
	stopped    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("scheduler already started")

// Option is a function that configures the scheduler
type Option func(*defaultScheduler)

// WithClock replaces the real clock, mainly for tests
func WithClock(c clock.Clock) Option {
	return func(s *defaultScheduler) {
		s.clock = c
	}
}

// WithStatusTracker publishes the next tick time to t
func WithStatusTracker(t *status.Tracker) Option {
	return func(s *defaultScheduler) {
		s.tracker = t
	}
}

// New creates a scheduler for job
func New(job Job, interval time.Duration, opts ...Option) Scheduler {
	s := &defaultScheduler{
		job:      job,
		interval: interval,
		clock:    clock.RealClock{},
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start performs the first run at once and blocks until stopped
func (s *defaultScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	if s.stopped {
		s.mu.Unlock()
		close(s.done)
		slog.Info("Sync scheduler stopped before start")
		return nil
	}
	schedCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.mu.Unlock()

	slog.Info("Starting sync scheduler", "interval", s.interval)
	defer func() {
		cancel()
		close(s.done)
		slog.Info("Sync scheduler shut down")
	}()

	for {
		if schedCtx.Err() != nil {
			return nil
		}
		s.runJob(schedCtx)
		if schedCtx.Err() != nil {
			return nil
		}

		next := s.clock.Now().Add(s.interval)
		s.tracker.SetNextRun(next)
		slog.Info("Next run scheduled at", "next_run", next.Format(time.RFC3339))

		select {
		case <-s.clock.After(s.interval):
		case <-schedCtx.Done():
			slog.Info("Sync scheduler stopping")
			return nil
		}
	}
}

// Stop gracefully stops the scheduler. A later Start returns without running.
func (s *defaultScheduler) Stop() error {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancelFunc
	s.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync scheduler")
		cancel()
		// Wait for the loop and any in-flight run to finish
		<-s.done
	}
	return nil
}

// runJob runs one tick on a context detached from cancellation so that
// stopping the scheduler lets the run finish
func (s *defaultScheduler) runJob(ctx context.Context) {
	if err := s.job.Run(context.WithoutCancel(ctx)); err != nil {
		slog.Error("Sync run failed", "error", err)
	}
}
