package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance. Callbacks run on the
// goroutine calling Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	next    Token
	pending map[Token]manualEntry
}

type manualEntry struct {
	at  time.Duration
	seq Token
	fn  func()
}

// NewManual builds a scheduler whose clock starts at zero.
func NewManual() *Manual {
	return &Manual{pending: make(map[Token]manualEntry)}
}

func (m *Manual) Schedule(fn func(), delay time.Duration) Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	m.next++
	m.pending[m.next] = manualEntry{at: m.now + delay, seq: m.next, fn: fn}
	return m.next
}

func (m *Manual) Cancel(token Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[token]; !ok {
		return false
	}
	delete(m.pending, token)
	return true
}

// Advance moves the clock forward by d and runs every callback that became due,
// in due-time order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	target := m.now
	m.mu.Unlock()

	for {
		entry, ok := m.popDue(target)
		if !ok {
			return
		}
		entry.fn()
	}
}

// Pending returns the number of callbacks not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) popDue(target time.Duration) (manualEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]manualEntry, 0, len(m.pending))
	for _, entry := range m.pending {
		if entry.at <= target {
			due = append(due, entry)
		}
	}
	if len(due) == 0 {
		return manualEntry{}, false
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	delete(m.pending, due[0].seq)
	return due[0], true
}
