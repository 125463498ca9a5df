package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

func TestSessionReusesValidHeader(t *testing.T) {
	registry := session.NewRegistry(session.Params{Scheduler: scheduler.NewManual(), Logger: logger.New(logger.Options{Output: io.Discard})})

	var got *session.Session
	handler := Session(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(session.Header, "browser-session-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "browser-session-01", got.ID)
	assert.Equal(t, "browser-session-01", rec.Header().Get(session.Header))

	again := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	again.Header.Set(session.Header, "browser-session-01")
	var second *session.Session
	Session(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second = SessionFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), again)
	assert.Same(t, got, second)
}

func TestSessionIssuesIDWhenMissingOrMalformed(t *testing.T) {
	registry := session.NewRegistry(session.Params{Scheduler: scheduler.NewManual(), Logger: logger.New(logger.Options{Output: io.Discard})})
	handler := Session(registry, nil)(okHandler())

	for _, header := range []string{"", "short", "spaces are not allowed here"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(session.Header, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		issued := rec.Header().Get(session.Header)
		assert.True(t, session.ValidID(issued), "issued %q for %q", issued, header)
		assert.NotEqual(t, header, issued)
	}
	assert.Equal(t, 3, registry.Len())
}
