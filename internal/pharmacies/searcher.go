package pharmacies

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

// ErrSuperseded is returned to a pending suggestion request when a newer
// request from the same session replaces it inside the quiet period.
var ErrSuperseded = errors.New("search superseded by a newer query")

type suggestResult struct {
	items []Medication
	err   error
}

type pendingSuggest struct {
	debouncer *scheduler.Debouncer
	waiter    chan suggestResult
}

// Searcher debounces incremental medication searches per session: only the
// last query typed within the quiet period reaches the backend.
type Searcher struct {
	service *Service
	sched   scheduler.Scheduler
	delay   time.Duration

	mu       sync.Mutex
	sessions map[string]*pendingSuggest
}

func NewSearcher(service *Service, sched scheduler.Scheduler, delay time.Duration) *Searcher {
	return &Searcher{
		service:  service,
		sched:    sched,
		delay:    delay,
		sessions: make(map[string]*pendingSuggest),
	}
}

// Suggest blocks until the quiet period elapses without a newer query from
// sessionID, then runs the search. Superseded callers get ErrSuperseded.
func (s *Searcher) Suggest(ctx context.Context, sessionID string, q MedicationQuery) ([]Medication, error) {
	waiter := make(chan suggestResult, 1)

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &pendingSuggest{debouncer: scheduler.NewDebouncer(s.sched, s.delay)}
		s.sessions[sessionID] = entry
	}
	if entry.waiter != nil {
		entry.waiter <- suggestResult{err: ErrSuperseded}
	}
	entry.waiter = waiter
	entry.debouncer.Trigger(func() {
		if !s.release(sessionID, waiter) {
			return
		}
		items, err := s.service.SearchMedications(ctx, q)
		waiter <- suggestResult{items: items, err: err}
	})
	s.mu.Unlock()

	select {
	case res := <-waiter:
		return res.items, res.err
	case <-ctx.Done():
		s.mu.Lock()
		if entry.waiter == waiter {
			entry.debouncer.Cancel()
			entry.waiter = nil
		}
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Forget drops the debouncer of a session.
func (s *Searcher) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[sessionID]; ok {
		entry.debouncer.Cancel()
		if entry.waiter != nil {
			entry.waiter <- suggestResult{err: ErrSuperseded}
		}
		delete(s.sessions, sessionID)
	}
}

// release detaches waiter from its session if it is still the current one.
func (s *Searcher) release(sessionID string, waiter chan suggestResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok || entry.waiter != waiter {
		return false
	}
	entry.waiter = nil
	return true
}
