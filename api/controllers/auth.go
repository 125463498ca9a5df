package controllers

import (
	"net/http"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/auth"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

func AuthLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := sess.Auth.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Toasts.AddDefault("Bienvenue "+result.User.FullName, enums.ToastKindSuccess)
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Auth.Logout(r.Context())
		responses.WriteNoContent(w)
	}
}

// AuthMe returns the user signed in on this browser session.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		user, ok := sess.Auth.CurrentUser()
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Aucun utilisateur connecté"))
			return
		}
		responses.WriteSuccess(w, auth.State{User: user, IsAuthenticated: true})
	}
}
