package redux

import (
	"context"
	"sync"
)

// Recorder is a Dispatcher for middleware tests. It records dispatched
// actions and runs effects inline, so a middleware call has finished all of
// its work by the time it returns.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	effects int
}

// Dispatch implements Dispatcher.
func (r *Recorder) Dispatch(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

// Go implements Dispatcher by calling fn synchronously.
func (r *Recorder) Go(fn func(ctx context.Context)) {
	r.mu.Lock()
	r.effects++
	r.mu.Unlock()
	fn(context.Background())
}

// Actions returns a copy of the dispatched actions in order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Effects returns how many effects were started.
func (r *Recorder) Effects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.effects
}

// Reset forgets recorded actions and effects.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
	r.effects = 0
}
