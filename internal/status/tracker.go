package status

import (
	"maps"
	"sync"
	"time"
)

// Tracker records the sync loop state. All methods are safe for concurrent use
// and a nil *Tracker ignores updates.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a tracker in the Idle phase
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Phase: SyncPhaseIdle}}
}

// RunStarted marks a run as in progress
func (t *Tracker) RunStarted(runID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Phase = SyncPhaseSyncing
	t.snap.CurrentRunID = runID
}

// RunFinished stores the summary of a finished run. A completed run also moves
// LastFullSync to the given day.
func (t *Tracker) RunFinished(summary RunSummary, fullSyncDay time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	summary.StepFailures = maps.Clone(summary.StepFailures)
	t.snap.LastRun = &summary
	t.snap.Phase = summary.Phase
	t.snap.CurrentRunID = ""
	t.snap.RunCount++
	if summary.Phase == SyncPhaseComplete {
		t.snap.LastFullSync = &fullSyncDay
	}
}

// SetNextRun records when the next tick is due
func (t *Tracker) SetNextRun(at time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.NextRunAt = &at
}

// Snapshot returns a deep copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{Phase: SyncPhaseIdle}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := t.snap
	if t.snap.LastRun != nil {
		run := *t.snap.LastRun
		run.StepFailures = maps.Clone(run.StepFailures)
		snap.LastRun = &run
	}
	if t.snap.LastFullSync != nil {
		day := *t.snap.LastFullSync
		snap.LastFullSync = &day
	}
	if t.snap.NextRunAt != nil {
		next := *t.snap.NextRunAt
		snap.NextRunAt = &next
	}
	return snap
}
