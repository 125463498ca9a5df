package api

import (
	"net"
	"net/http"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/config"
)

// NewServer wraps handler in the HTTP server cmd/api runs.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		// Suggest requests hold the connection for the debounce window.
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
