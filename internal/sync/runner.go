package sync

import (
	"context"
	"sync"

	"k8s.io/utils/clock"
)

// Runner keeps the State between scheduler ticks
type Runner struct {
	orchestrator *Orchestrator
	clock        clock.PassiveClock

	mu    sync.Mutex
	state State
}

// NewRunner creates a Runner starting from an empty State, so the first tick
// after process start always performs a full run
func NewRunner(o *Orchestrator, clk clock.PassiveClock) *Runner {
	return &Runner{orchestrator: o, clock: clk}
}

// Run performs one gated tick at the clock's current time
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, _, err := r.orchestrator.RunOnce(ctx, r.state, r.clock.Now())
	r.state = next
	return err
}

// State returns the state carried to the next tick
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
