package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted slice names, shared with the browser's storage keys.
const (
	CartSlice     = "cart-storage"
	AuthSlice     = "auth-storage"
	LocationSlice = "location-storage"
)

// ErrNotFound is returned by a Backend when nothing was saved yet.
var ErrNotFound = errors.New("persisted state not found")

// Persister is the save boundary injected into each state container.
// Load reports ok=false when nothing was persisted yet.
type Persister[T any] interface {
	Load(ctx context.Context) (state T, ok bool, err error)
	Save(ctx context.Context, state T) error
}

// Backend stores raw slice snapshots per session.
type Backend interface {
	Read(ctx context.Context, sessionID, slice string) ([]byte, error)
	Write(ctx context.Context, sessionID, slice string, data []byte) error
	Delete(ctx context.Context, sessionID, slice string) error
}

// Slice persists one JSON-encoded slice of a session through a Backend.
type Slice[T any] struct {
	backend   Backend
	sessionID string
	name      string
}

// NewSlice binds a slice name of sessionID to backend.
func NewSlice[T any](backend Backend, sessionID, name string) *Slice[T] {
	return &Slice[T]{backend: backend, sessionID: sessionID, name: name}
}

// Load decodes the saved snapshot.
func (s *Slice[T]) Load(ctx context.Context) (T, bool, error) {
	var state T
	data, err := s.backend.Read(ctx, s.sessionID, s.name)
	if errors.Is(err, ErrNotFound) {
		return state, false, nil
	}
	if err != nil {
		return state, false, fmt.Errorf("read %s: %w", s.name, err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, false, fmt.Errorf("decode %s: %w", s.name, err)
	}
	return state, true, nil
}

// Save encodes and writes state.
func (s *Slice[T]) Save(ctx context.Context, state T) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}
	if err := s.backend.Write(ctx, s.sessionID, s.name, data); err != nil {
		return fmt.Errorf("write %s: %w", s.name, err)
	}
	return nil
}

// Clear removes the saved snapshot.
func (s *Slice[T]) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.sessionID, s.name)
}

// Nop never persists anything. Containers built without storage use it.
type Nop[T any] struct{}

func (Nop[T]) Load(context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (Nop[T]) Save(context.Context, T) error { return nil }
