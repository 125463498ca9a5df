package scheduler

import (
	"context"
	"sync"
	"time"
)

// Token identifies a scheduled callback. The zero token is never issued.
type Token uint64

// Scheduler runs callbacks after a delay and lets callers cancel them.
type Scheduler interface {
	Schedule(fn func(), delay time.Duration) Token
	Cancel(token Token) bool
}

// Timer schedules callbacks on time.AfterFunc.
type Timer struct {
	mu     sync.Mutex
	next   Token
	timers map[Token]*time.Timer
}

// NewTimer builds a wall-clock scheduler.
func NewTimer() *Timer {
	return &Timer{timers: make(map[Token]*time.Timer)}
}

// Schedule runs fn on its own goroutine once delay elapses.
func (t *Timer) Schedule(fn func(), delay time.Duration) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	token := t.next
	t.timers[token] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		_, pending := t.timers[token]
		delete(t.timers, token)
		t.mu.Unlock()
		if pending {
			fn()
		}
	})
	return token
}

// Cancel stops a pending callback. It reports false when the callback already
// ran or was cancelled.
func (t *Timer) Cancel(token Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[token]
	if !ok {
		return false
	}
	delete(t.timers, token)
	timer.Stop()
	return true
}

// Pending returns the number of callbacks not yet fired.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop cancels every pending callback.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, timer := range t.timers {
		timer.Stop()
		delete(t.timers, token)
	}
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
