package scheduler

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period of the search bar.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer collapses bursts of triggers into a single call fired after a
// quiet period. Each Trigger cancels the previously scheduled call.
type Debouncer struct {
	sched Scheduler
	delay time.Duration

	mu      sync.Mutex
	token   Token
	pending bool
}

// NewDebouncer wires a debouncer on sched. A non-positive delay falls back to DefaultDebounce.
func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger replaces any pending call with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		d.sched.Cancel(d.token)
	}
	var token Token
	token = d.sched.Schedule(func() {
		d.mu.Lock()
		current := d.pending && d.token == token
		if current {
			d.pending = false
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	}, d.delay)
	d.token = token
	d.pending = true
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		d.sched.Cancel(d.token)
		d.pending = false
	}
}
