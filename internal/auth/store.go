package auth

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
)

// Store is the auth slice of one session.
type Store struct {
	mu        sync.Mutex
	state     State
	gateway   Gateway
	issuer    *Issuer
	persister persist.Persister[State]
	logg      *logger.Logger
}

// New rehydrates the auth slice once from persister. A snapshot claiming
// authentication without a user is discarded.
func New(ctx context.Context, gateway Gateway, issuer *Issuer, persister persist.Persister[State], logg *logger.Logger) *Store {
	s := &Store{gateway: gateway, issuer: issuer, persister: persister, logg: logg}
	state, ok, err := persister.Load(ctx)
	if err != nil {
		logg.Error(ctx, "auth rehydration failed, starting signed out", err)
		return s
	}
	if ok && state.IsAuthenticated && state.User != nil {
		s.state = state
	}
	return s
}

// Login checks the credentials with the gateway and marks the session as
// authenticated. The session keeps its previous state on failure.
func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email et mot de passe requis")
	}

	user, err := s.gateway.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "")
	}

	s.mu.Lock()
	s.state = State{User: user, IsAuthenticated: true}
	s.save(ctx)
	s.mu.Unlock()

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "pharmacist signed in")
	return &LoginResult{User: *user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Logout forgets the user. It is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	s.save(ctx)
}

// CurrentUser returns a copy of the signed-in user.
func (s *Store) CurrentUser() (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsAuthenticated || s.state.User == nil {
		return nil, false
	}
	u := *s.state.User
	return &u, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// Snapshot returns the persisted shape.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := State{IsAuthenticated: s.state.IsAuthenticated}
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

func (s *Store) save(ctx context.Context) {
	if err := s.persister.Save(ctx, s.state); err != nil {
		s.logg.Error(ctx, "auth persistence failed", err)
	}
}
