package session

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/internal/auth"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/internal/location"
	"github.com/pharmalink/pharmalink-backend/internal/toasts"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

// Header carries the client-chosen session identifier.
const Header = "X-Session-Id"

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// ValidID reports whether id can name a session.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Session groups the state containers of one browser session.
type Session struct {
	ID       string
	Cart     *cart.Store
	Toasts   *toasts.Store
	Location *location.Store
	Auth     *auth.Store

	lastSeen time.Time
}

// Params bundles what the registry needs to build a session.
type Params struct {
	Backend       persist.Backend
	AuthGateway   auth.Gateway
	Issuer        *auth.Issuer
	Scheduler     scheduler.Scheduler
	ToastDuration time.Duration
	Logger        *logger.Logger
	Now           func() time.Time
}

// Registry lazily builds sessions and keeps them in memory. Persisted slices
// survive eviction; toasts do not.
type Registry struct {
	params Params

	mu       sync.Mutex
	sessions map[string]*Session
	onEvict  []func(id string)
}

func NewRegistry(params Params) *Registry {
	if params.Backend == nil {
		params.Backend = persist.NewMemoryBackend()
	}
	if params.Scheduler == nil {
		params.Scheduler = scheduler.NewTimer()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Registry{params: params, sessions: make(map[string]*Session)}
}

// OnEvict registers fn to run after a session is dropped.
func (r *Registry) OnEvict(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Get returns the session for id, rehydrating its persisted slices on first use.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.params.Now()
		return s
	}

	p := r.params
	s := &Session{
		ID:       id,
		Cart:     cart.New(ctx, persist.NewSlice[cart.State](p.Backend, id, persist.CartSlice), p.Logger),
		Toasts:   toasts.New(p.Scheduler, p.ToastDuration),
		Location: location.New(ctx, persist.NewSlice[location.State](p.Backend, id, persist.LocationSlice), p.Logger),
		Auth:     auth.New(ctx, p.AuthGateway, p.Issuer, persist.NewSlice[auth.State](p.Backend, id, persist.AuthSlice), p.Logger),
		lastSeen: p.Now(),
	}
	r.sessions[id] = s
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many went.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.params.Now().Add(-idle)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	hooks := append([]func(string){}, r.onEvict...)
	r.mu.Unlock()

	for _, s := range evicted {
		s.Toasts.Clear()
		for _, fn := range hooks {
			fn(s.ID)
		}
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 && r.params.Logger != nil {
				r.params.Logger.Debug(ctx, "evicted idle sessions")
			}
		}
	}
}
