package middleware

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/internal/session"
)

type contextKey string

const (
	ctxPharmacistID contextKey = "pharmacist_id"
	ctxRole         contextKey = "actor_role"
	ctxPharmacyID   contextKey = "pharmacy_id"
	ctxSession      contextKey = "session"
)

func PharmacistIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPharmacistID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func PharmacyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPharmacyID).(string); ok {
		return v
	}
	return ""
}

// SessionFromContext returns the session attached by the Session middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxSession).(*session.Session)
	return s
}

// WithSession injects s into the context for downstream handlers.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, s)
}

// WithClaims seeds the dashboard identity. Used by tests that bypass Auth.
func WithClaims(ctx context.Context, pharmacistID, role, pharmacyID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPharmacistID, pharmacistID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxPharmacyID, pharmacyID)
}
