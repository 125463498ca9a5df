package middleware

import (
	"net/http"
	"strings"

	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

// Session resolves the X-Session-Id header to the caller's state containers.
// A missing or malformed id gets a fresh one, echoed back so the client can
// keep it.
func Session(registry *session.Registry, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(session.Header))
			if !session.ValidID(id) {
				id = session.NewID()
			}
			w.Header().Set(session.Header, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			ctx = WithSession(ctx, registry.Get(ctx, id))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
