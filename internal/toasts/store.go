package toasts

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

// DefaultDuration applies when Add is called with a zero-value config.
const DefaultDuration = 5 * time.Second

// Infinite disables automatic removal.
const Infinite time.Duration = -1

// MaxDuration caps how long a toast may stay before it expires.
const MaxDuration = 24 * time.Hour

// Toast is a transient user-facing notification.
type Toast struct {
	ID       string          `json:"id"`
	Message  string          `json:"message"`
	Kind     enums.ToastKind `json:"type"`
	Duration time.Duration   `json:"-"`
}

// MarshalJSON reports the duration as durationMs, -1 for Infinite.
func (t Toast) MarshalJSON() ([]byte, error) {
	ms := t.Duration.Milliseconds()
	if t.Duration < 0 {
		ms = -1
	}
	return json.Marshal(struct {
		ID         string          `json:"id"`
		Message    string          `json:"message"`
		Kind       enums.ToastKind `json:"type"`
		DurationMs int64           `json:"durationMs"`
	}{t.ID, t.Message, t.Kind, ms})
}

type entry struct {
	toast   Toast
	token   scheduler.Token
	expires bool
}

// Store is the FIFO notification queue of one session.
type Store struct {
	sched           scheduler.Scheduler
	defaultDuration time.Duration

	mu      sync.Mutex
	entries []entry
}

// New builds a store whose expiries run on sched. A non-positive
// defaultDuration falls back to DefaultDuration.
func New(sched scheduler.Scheduler, defaultDuration time.Duration) *Store {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Store{sched: sched, defaultDuration: defaultDuration}
}

// Add appends a toast and schedules its removal after duration, capped at
// MaxDuration. A negative duration never expires; zero expires on the next
// scheduler tick.
func (s *Store) Add(message string, kind enums.ToastKind, duration time.Duration) string {
	if !kind.IsValid() {
		kind = enums.ToastKindInfo
	}
	if duration > MaxDuration {
		duration = MaxDuration
	}
	toast := Toast{ID: uuid.NewString(), Message: message, Kind: kind, Duration: duration}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{toast: toast}
	if duration >= 0 {
		id := toast.ID
		e.token = s.sched.Schedule(func() { s.expire(id) }, duration)
		e.expires = true
	}
	s.entries = append(s.entries, e)
	return toast.ID
}

// AddDefault adds a toast with the store's default duration.
func (s *Store) AddDefault(message string, kind enums.ToastKind) string {
	return s.Add(message, kind, s.defaultDuration)
}

// Remove dismisses the toast immediately. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	if e := s.entries[idx]; e.expires {
		s.sched.Cancel(e.token)
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
}

// List returns the toasts in insertion order.
func (s *Store) List() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Toast, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.toast)
	}
	return out
}

// Clear dismisses every toast.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.expires {
			s.sched.Cancel(e.token)
		}
	}
	s.entries = nil
}

func (s *Store) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	}
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.toast.ID == id {
			return i
		}
	}
	return -1
}
