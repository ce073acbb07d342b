package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/agroland/agroland-sync/internal/feed"
	"github.com/agroland/agroland-sync/internal/otel"
	"github.com/agroland/agroland-sync/internal/status"
	"github.com/agroland/agroland-sync/internal/store"
	"github.com/agroland/agroland-sync/internal/telemetry"
	"github.com/agroland/agroland-sync/internal/upsert"
)

// ErrFetchFailed wraps any error returned by the feed fetch
var ErrFetchFailed = errors.New("feed fetch failed")

// productOutcomeFailed labels products whose core record could not be written
const productOutcomeFailed = "failed"

// State is carried between runs
type State struct {
	// LastFullSync is midnight of the day of the last completed run in the
	// orchestrator's time zone; zero means no run has completed yet
	LastFullSync time.Time
}

// Report describes one run that passed the day gate
type Report struct {
	RunID      string
	Forced     bool
	StartedAt  time.Time
	FinishedAt time.Time
	// FetchErr is set when the feed could not be fetched; counters are then zero
	FetchErr error

	Considered int
	Inserted   int
	Updated    int
	Untracked  int
	// Failed counts products with at least one failed step
	Failed       int
	StepFailures map[string]int
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary converts the report for the status tracker
func (r *Report) Summary() status.RunSummary {
	s := status.RunSummary{
		RunID:        r.RunID,
		Forced:       r.Forced,
		Phase:        status.SyncPhaseComplete,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Considered:   r.Considered,
		Inserted:     r.Inserted,
		Updated:      r.Updated,
		Untracked:    r.Untracked,
		Failed:       r.Failed,
		StepFailures: r.StepFailures,
	}
	if r.FetchErr != nil {
		s.Phase = status.SyncPhaseFailed
		s.Message = r.FetchErr.Error()
	}
	return s
}

func (r *Report) add(res *upsert.Result) {
	switch {
	case res.CoreErr != nil:
		r.StepFailures[upsert.StepCore]++
	case res.Outcome == store.OutcomeInserted:
		r.Inserted++
	case res.Outcome == store.OutcomeUpdated:
		r.Updated++
	default:
		r.Untracked++
	}
	if res.DescriptionErr != nil {
		r.StepFailures[upsert.StepDescription]++
	}
	if n := res.PhotoFailures(); n > 0 {
		r.StepFailures[upsert.StepImage] += n
	}
	if res.Failed() {
		r.Failed++
	}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLocation sets the time zone of the once-per-day gate
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		o.location = loc
	}
}

// WithSyncMetrics sets the sync metrics for the orchestrator
func WithSyncMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for run spans
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithStatusTracker publishes run progress to t
func WithStatusTracker(t *status.Tracker) Option {
	return func(o *Orchestrator) {
		o.tracker = t
	}
}

// Orchestrator performs sync runs
type Orchestrator struct {
	fetcher  feed.Fetcher
	upserter upsert.Upserter
	location *time.Location
	metrics  *telemetry.SyncMetrics
	tracer   trace.Tracer
	tracker  *status.Tracker
	// now measures run durations; tests replace it
	now func() time.Time
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(fetcher feed.Fetcher, upserter upsert.Upserter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher,
		upserter: upserter,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Day returns midnight of t's calendar day in the orchestrator's time zone
func (o *Orchestrator) Day(t time.Time) time.Time {
	y, m, d := t.In(o.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.location)
}

// SyncedOn reports whether state already records a completed run on now's day
func (o *Orchestrator) SyncedOn(state State, now time.Time) bool {
	return !state.LastFullSync.IsZero() && o.Day(state.LastFullSync).Equal(o.Day(now))
}

// RunOnce performs a run unless one already completed on now's day. A skipped
// tick returns the state unchanged and a nil report. On a fetch failure the
// returned error wraps ErrFetchFailed and the state is unchanged.
func (o *Orchestrator) RunOnce(ctx context.Context, state State, now time.Time) (State, *Report, error) {
	if o.SyncedOn(state, now) {
		slog.DebugContext(ctx, "Products already synchronized today, skipping",
			"last_full_sync", state.LastFullSync.Format(time.DateOnly))
		o.metrics.RecordRun(ctx, 0, telemetry.RunOutcomeSkipped)
		return state, nil, nil
	}
	return o.run(ctx, state, now, false)
}

// ForceRun performs a run regardless of the day gate
func (o *Orchestrator) ForceRun(ctx context.Context, state State, now time.Time) (State, *Report, error) {
	return o.run(ctx, state, now, true)
}

func (o *Orchestrator) run(ctx context.Context, state State, now time.Time, forced bool) (State, *Report, error) {
	report := &Report{
		RunID:        uuid.NewString(),
		Forced:       forced,
		StartedAt:    o.now(),
		StepFailures: map[string]int{},
	}

	ctx, span := otel.StartSpan(ctx, o.tracer, "sync.Run",
		trace.WithAttributes(
			otel.AttrRunID.String(report.RunID),
			otel.AttrRunForced.Bool(forced),
		),
	)
	defer span.End()

	logger := slog.With("run_id", report.RunID)
	logger.InfoContext(ctx, "Starting product synchronization", "forced", forced)
	o.tracker.RunStarted(report.RunID)

	products, err := o.fetcher.Fetch(ctx)
	if err != nil {
		report.FetchErr = err
		report.FinishedAt = o.now()
		otel.RecordError(span, err)
		logger.ErrorContext(ctx, "Error while fetching products", "error", err)
		o.metrics.RecordRun(ctx, report.Duration(), telemetry.RunOutcomeFetchFailed)
		o.tracker.RunFinished(report.Summary(), state.LastFullSync)
		return state, report, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	report.Considered = len(products)
	span.SetAttributes(otel.AttrProductCount.Int(len(products)))
	o.metrics.RecordFeedSize(ctx, len(products))
	if len(products) == 0 {
		logger.WarnContext(ctx, "Feed returned no products")
	} else {
		logger.InfoContext(ctx, "Attempting to update products in database", "count", len(products))
	}

	for i := range products {
		res := o.upsertProduct(ctx, logger, &products[i])
		report.add(&res)
		o.recordProduct(ctx, &res)
	}

	report.FinishedAt = o.now()
	next := State{LastFullSync: o.Day(now)}

	logger.InfoContext(ctx, "Products imported",
		"total", report.Inserted+report.Updated,
		"considered", report.Considered,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"untracked", report.Untracked,
		"failed", report.Failed,
		"duration", report.Duration().String())

	o.metrics.RecordRun(ctx, report.Duration(), telemetry.RunOutcomeCompleted)
	o.tracker.RunFinished(report.Summary(), next.LastFullSync)
	return next, report, nil
}

// upsertProduct isolates one product: a panic becomes a core step failure
func (o *Orchestrator) upsertProduct(ctx context.Context, logger *slog.Logger, p *feed.Product) (res upsert.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while upserting product",
				"identity", p.Identity(),
				"name", p.Name,
				"panic", r,
				"stack", string(debug.Stack()))
			res = upsert.Result{
				Identity: p.Identity(),
				CoreErr:  fmt.Errorf("panic while upserting product: %v", r),
			}
		}
	}()
	return o.upserter.Upsert(ctx, *p)
}

func (o *Orchestrator) recordProduct(ctx context.Context, res *upsert.Result) {
	if res.CoreErr != nil {
		o.metrics.RecordProduct(ctx, productOutcomeFailed)
		return
	}
	o.metrics.RecordProduct(ctx, string(res.Outcome))
}
