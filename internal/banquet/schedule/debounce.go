// Package schedule provides the timing primitives that gate how often draft
// edits are committed and persisted.
package schedule

import (
	"sync"
	"time"
)

// Debouncer collapses rapid triggers into one call carrying the last value,
// made once the stream has been quiet for the configured delay. fn runs
// outside the lock, so a timer call and a Flush may overlap and Cancel does
// not wait for a call already started.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending bool
	last    T
	stopped bool
}

// NewDebouncer returns a debouncer that calls fn after delay of quiescence.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.last = v
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush runs a scheduled call now. It is a no-op when nothing is pending.
func (d *Debouncer[T]) Flush() {
	d.fire()
}

// Cancel drops any scheduled call.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
	var zero T
	d.last = zero
}

// Stop cancels pending work and ignores later triggers.
func (d *Debouncer[T]) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.last
	d.pending = false
	d.mu.Unlock()
	d.fn(v)
}
