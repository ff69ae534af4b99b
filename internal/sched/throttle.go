// Package sched provides the rate-limiting primitives used by the view
// model: a trailing-edge throttle for render-list emission and a trailing
// debounce for idle detection.
package sched

import (
	"sync"
	"time"
)

// Throttle coalesces bursts of signals into at most one action invocation
// per window. The action runs on the trailing edge of the window, so the
// latest state wins and intermediate states are skipped. Schedule never
// blocks and never runs the action inline.
type Throttle struct {
	window time.Duration
	action func()

	mu      sync.Mutex
	pending bool
	stopped bool
	timer   *time.Timer
}

// NewThrottle creates a throttle firing action at most once per window.
func NewThrottle(window time.Duration, action func()) *Throttle {
	return &Throttle{window: window, action: action}
}

// Schedule requests an action run. The first signal of a window arms the
// timer; further signals inside the same window are absorbed.
func (t *Throttle) Schedule() {
	t.mu.Lock()
	if t.pending || t.stopped {
		t.mu.Unlock()
		return
	}
	t.pending = true
	t.timer = time.AfterFunc(t.window, t.fire)
	t.mu.Unlock()
}

func (t *Throttle) fire() {
	t.mu.Lock()
	t.pending = false
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.action()
	}
}

// Stop cancels any armed timer and prevents further fires.
func (t *Throttle) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
}
