// Package debounce delays an operation until a quiet period has passed,
// restarting the wait every time a new operation is scheduled.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer runs at most the most recently scheduled function, delay after
// it was scheduled. Scheduling again before the delay elapses replaces the
// pending function and restarts the wait.
type Debouncer struct {
	clock    clockwork.Clock
	delay    time.Duration
	onCancel func()

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

// New returns a Debouncer. onCancel, when non-nil, is called each time a
// pending function is discarded without running, either replaced by a newer
// Schedule or dropped by Cancel.
func New(clock clockwork.Clock, delay time.Duration, onCancel func()) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, delay: delay, onCancel: onCancel}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule arranges for fn to run after the delay, discarding any pending function.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	canceled := d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.mu.Unlock()

	if canceled && d.onCancel != nil {
		d.onCancel()
	}
}

// Cancel discards the pending function, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	canceled := d.stopLocked()
	d.gen++
	d.mu.Unlock()

	if canceled && d.onCancel != nil {
		d.onCancel()
	}
	return canceled
}

// Pending reports whether a function is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}
