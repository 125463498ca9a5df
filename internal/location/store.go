package location

import (
	"context"
	"sync"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
)

var geolocationMessages = map[enums.GeolocationErrorKind]string{
	enums.GeolocationPermissionDenied:    "Vous avez refusé l'accès à votre position",
	enums.GeolocationPositionUnavailable: "Votre position est indisponible",
	enums.GeolocationTimeout:             "La demande de localisation a expiré",
}

// GeolocationError is a failure reported by the device while resolving the
// user's position.
type GeolocationError struct {
	Kind       enums.GeolocationErrorKind `json:"kind"`
	Message    string                     `json:"message"`
	OccurredAt time.Time                  `json:"occurredAt"`
}

func (e *GeolocationError) Error() string {
	return e.Message
}

// NewGeolocationError builds the error for kind with its French message.
func NewGeolocationError(kind enums.GeolocationErrorKind, at time.Time) (*GeolocationError, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Type d'erreur de localisation inconnu").
			WithDetails(map[string]string{"kind": kind.String()})
	}
	return &GeolocationError{Kind: kind, Message: geolocationMessages[kind], OccurredAt: at}, nil
}

// State is the persisted location-storage shape.
type State struct {
	UserCoords           *geo.Coords `json:"userCoords"`
	SelectedPharmacyID   string      `json:"selectedPharmacyId,omitempty"`
	SelectedPharmacyName string      `json:"selectedPharmacyName,omitempty"`
}

// View is State plus the runtime-only fields returned to clients.
type View struct {
	State
	Available bool              `json:"available"`
	LastError *GeolocationError `json:"lastError,omitempty"`
}

// Store holds the position and selected pharmacy of one session.
type Store struct {
	mu        sync.Mutex
	state     State
	lastError *GeolocationError
	persister persist.Persister[State]
	logg      *logger.Logger
}

// New rehydrates the location slice once from persister.
func New(ctx context.Context, persister persist.Persister[State], logg *logger.Logger) *Store {
	s := &Store{persister: persister, logg: logg}
	state, ok, err := persister.Load(ctx)
	if err != nil {
		logg.Error(ctx, "location rehydration failed, starting empty", err)
		return s
	}
	if ok {
		if state.UserCoords != nil && !state.UserCoords.Valid() {
			state.UserCoords = nil
		}
		s.state = state
	}
	return s
}

// SetUserCoords records a fresh position and clears the last error.
func (s *Store) SetUserCoords(ctx context.Context, coords geo.Coords) error {
	if !coords.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Coordonnées invalides")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.UserCoords = &coords
	s.lastError = nil
	s.save(ctx)
	return nil
}

// SelectPharmacy remembers the pharmacy the user picked. An empty id clears it.
func (s *Store) SelectPharmacy(ctx context.Context, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SelectedPharmacyID = id
	s.state.SelectedPharmacyName = name
	if id == "" {
		s.state.SelectedPharmacyName = ""
	}
	s.save(ctx)
}

// RecordError stores a geolocation failure. Previously known coordinates are
// dropped so location-based features degrade instead of using a stale fix.
func (s *Store) RecordError(ctx context.Context, gerr *GeolocationError) {
	if gerr == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = gerr
	if gerr.Kind == enums.GeolocationPermissionDenied && s.state.UserCoords != nil {
		s.state.UserCoords = nil
		s.save(ctx)
	}
	s.logg.Warn(ctx, "geolocation unavailable: "+gerr.Message)
}

// Clear forgets coordinates, selection and last error.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	s.lastError = nil
	s.save(ctx)
}

// Coords returns the last known position.
func (s *Store) Coords() (geo.Coords, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.UserCoords == nil {
		return geo.Coords{}, false
	}
	return *s.state.UserCoords, true
}

// Snapshot returns a copy of the slice for rendering.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{State: s.state, LastError: s.lastError}
	if s.state.UserCoords != nil {
		c := *s.state.UserCoords
		v.UserCoords = &c
		v.Available = true
	}
	return v
}

func (s *Store) save(ctx context.Context) {
	if err := s.persister.Save(ctx, s.state); err != nil {
		s.logg.Error(ctx, "location persistence failed", err)
	}
}
