package sched

import (
	"sync"
	"time"
)

// Debounce fires an action only after a quiet period with no further
// signals. Every Schedule call resets the timer; there is no leading fire.
// Schedule never blocks.
type Debounce struct {
	delay  time.Duration
	action func()

	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
}

// NewDebounce creates a debounce firing action after delay of silence.
func NewDebounce(delay time.Duration, action func()) *Debounce {
	return &Debounce{delay: delay, action: action}
}

// Schedule restarts the quiet-period timer.
func (d *Debounce) Schedule() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
	d.mu.Unlock()
}

func (d *Debounce) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped {
		d.action()
	}
}

// Stop cancels any armed timer and prevents further fires.
func (d *Debounce) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
}
