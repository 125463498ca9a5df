package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/toasts"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

func ToastsList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		list := sess.Toasts.List()
		if list == nil {
			list = []toasts.Toast{}
		}
		responses.WriteSuccess(w, list)
	}
}

const maxToastMessageRunes = 500

// createToastRequest carries the duration in milliseconds. Absent means the
// default; a negative value keeps the toast until it is dismissed.
type createToastRequest struct {
	Message    string          `json:"message" validate:"required"`
	Type       enums.ToastKind `json:"type"`
	DurationMs *int64          `json:"durationMs"`
}

func ToastsCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload createToastRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := validators.SanitizeText(payload.Message, maxToastMessageRunes)
		if message == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Le message est requis").
				WithDetails(map[string]any{"field": "message"}))
			return
		}
		if payload.DurationMs != nil && *payload.DurationMs > toasts.MaxDuration.Milliseconds() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Durée de notification trop longue").
				WithDetails(map[string]any{"field": "durationMs", "maxMs": toasts.MaxDuration.Milliseconds()}))
			return
		}
		if payload.Type != "" && !payload.Type.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Type de notification inconnu").
				WithDetails(map[string]any{"field": "type"}))
			return
		}

		var id string
		switch {
		case payload.DurationMs == nil:
			id = sess.Toasts.AddDefault(message, payload.Type)
		case *payload.DurationMs < 0:
			id = sess.Toasts.Add(message, payload.Type, toasts.Infinite)
		default:
			id = sess.Toasts.Add(message, payload.Type, time.Duration(*payload.DurationMs)*time.Millisecond)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func ToastsDelete(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Toasts.Remove(chi.URLParam(r, "toastId"))
		responses.WriteNoContent(w)
	}
}
