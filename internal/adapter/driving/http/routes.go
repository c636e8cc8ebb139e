package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the OAuth flow, health and metrics routes on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /oauthSignin/{$}", h.SignIn)
	mux.HandleFunc("GET /oauthRedirect/{$}", h.Callback)
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// ApplyMiddleware wraps handler with request ids, logging, metrics and
// panic recovery.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging. Metrics must sit
	// directly on the recovery wrapper so it sees the request the mux matched.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = metricsMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)
	return wrapped
}
