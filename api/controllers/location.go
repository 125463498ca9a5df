package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/location"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

func LocationGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		responses.WriteSuccess(w, sess.Location.Snapshot())
	}
}

// updateLocationRequest is a partial update: absent fields are left alone.
type updateLocationRequest struct {
	UserCoords           *geo.Coords `json:"userCoords"`
	SelectedPharmacyID   *string     `json:"selectedPharmacyId" validate:"omitempty,max=64"`
	SelectedPharmacyName *string     `json:"selectedPharmacyName" validate:"omitempty,max=200"`
}

func LocationUpdate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload updateLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.UserCoords != nil {
			if err := sess.Location.SetUserCoords(r.Context(), *payload.UserCoords); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.SelectedPharmacyID != nil {
			name := ""
			if payload.SelectedPharmacyName != nil {
				name = strings.TrimSpace(*payload.SelectedPharmacyName)
			}
			sess.Location.SelectPharmacy(r.Context(), strings.TrimSpace(*payload.SelectedPharmacyID), name)
		}
		responses.WriteSuccess(w, sess.Location.Snapshot())
	}
}

type locationErrorRequest struct {
	Kind enums.GeolocationErrorKind `json:"kind" validate:"required"`
}

// LocationError records a browser geolocation failure. The request succeeds
// and the returned view reports available=false so the client degrades.
func LocationError(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload locationErrorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gerr, err := location.NewGeolocationError(payload.Kind, now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Location.RecordError(r.Context(), gerr)
		sess.Toasts.AddDefault(gerr.Message, enums.ToastKindWarning)
		responses.WriteSuccess(w, sess.Location.Snapshot())
	}
}

func LocationClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Location.Clear(r.Context())
		responses.WriteSuccess(w, sess.Location.Snapshot())
	}
}
