package middleware

import (
	"net/http"
	"strings"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	pkgAuth "github.com/pharmalink/pharmalink-backend/pkg/auth"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

const (
	missingCredentialsMessage = "Authentification requise"
	invalidTokenMessage       = "Session expirée ou invalide"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, missingCredentialsMessage))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage))
				return
			}

			ctx := WithClaims(r.Context(), claims.PharmacistID.String(), string(claims.Role), claims.PharmacyID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.PharmacistID.String())
				ctx = logg.WithField(ctx, "actor_role", string(claims.Role))
				if claims.PharmacyID != "" {
					ctx = logg.WithPharmacyID(ctx, claims.PharmacyID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
