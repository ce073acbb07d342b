// Package sync drives full catalog synchronization runs.
//
// # Core Types
//
//   - Orchestrator: one run: fetch the feed, upsert every product, report
//   - State: the day of the last completed run, used for the once-per-day gate
//   - Report: counters and timings of one run
//   - Runner: holds State between ticks and is the job driven by the scheduler
//
// # Run Flow
//
// RunOnce returns immediately when State already records today's date in the
// configured time zone. Otherwise it fetches the feed once. A failed fetch ends
// the run with ErrFetchFailed and State unchanged, so the next tick retries.
// A successful fetch upserts products one by one; failures, including panics,
// are isolated per product and never abort the loop. State then moves to
// today and a summary is logged.
//
// # Scheduler Package
//
// The sync/scheduler subpackage invokes the Runner immediately on start and
// then one interval after each run completes.
package sync
