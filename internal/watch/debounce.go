// Package watch turns file-system notifications into debounced callbacks.
package watch

import (
	"sync"
	"time"
)

// Debouncer runs fn once after d has elapsed since the most recent Trigger.
// The timer belongs to the Debouncer; callers own the Debouncer.
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64 // bumped by every Trigger
	stopped bool
}

// NewDebouncer returns an idle Debouncer.
func NewDebouncer(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

// Trigger schedules fn, cancelling any run that has not fired yet. It
// reports whether a pending run was replaced.
func (b *Debouncer) Trigger() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	replaced := b.timer != nil && b.timer.Stop()
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.d, func() { b.fire(gen) })
	return replaced
}

// Pending reports whether a run is scheduled.
func (b *Debouncer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timer != nil
}

// Stop cancels any pending run. Later Triggers are ignored.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// fire runs fn for the Trigger numbered gen. A timer that fired while a
// later Trigger held the lock is stale and does nothing.
func (b *Debouncer) fire(gen uint64) {
	b.mu.Lock()
	if b.stopped || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.mu.Unlock()
	b.fn()
}
