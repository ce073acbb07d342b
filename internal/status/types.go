// Package status keeps a thread-safe snapshot of the sync loop for the HTTP
// status endpoints.
package status

import "time"

// SyncPhase represents the current phase of the sync loop
type SyncPhase string

const (
	// SyncPhaseIdle means no run has started yet
	SyncPhaseIdle SyncPhase = "Idle"

	// SyncPhaseSyncing means a run is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last run fetched the feed and processed every product
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last run could not fetch the feed
	SyncPhaseFailed SyncPhase = "Failed"
)

// RunSummary describes one finished run
type RunSummary struct {
	// RunID identifies the run in logs and traces
	RunID string `json:"runId"`

	// Forced is true for runs that bypassed the once-per-day gate
	Forced bool `json:"forced,omitempty"`

	// Phase is SyncPhaseComplete or SyncPhaseFailed
	Phase SyncPhase `json:"phase"`

	// Message provides additional information, e.g. the fetch error
	Message string `json:"message,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Considered is the number of products returned by the feed
	Considered int `json:"considered"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Untracked  int `json:"untracked"`

	// Failed is the number of products with at least one failed step
	Failed int `json:"failed"`

	// StepFailures counts failures per step name
	StepFailures map[string]int `json:"stepFailures,omitempty"`
}

// Snapshot is a point-in-time copy of the sync loop state
type Snapshot struct {
	Phase SyncPhase `json:"phase"`

	// CurrentRunID is set while a run is in progress
	CurrentRunID string `json:"currentRunId,omitempty"`

	// LastRun is the most recent finished run, successful or not
	LastRun *RunSummary `json:"lastRun,omitempty"`

	// LastFullSync is the calendar day of the last completed run
	LastFullSync *time.Time `json:"lastFullSync,omitempty"`

	// NextRunAt is when the scheduler will tick next
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`

	// RunCount is the number of finished runs since the process started
	RunCount int `json:"runCount"`
}
