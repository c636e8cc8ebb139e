// Package httphandler implements the OAuth sign-in endpoints, health check,
// and shared middleware.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/onshapeapp/internal/application"
	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter for the OAuth flow.
type Handler struct {
	oauthSvc *application.OAuthService
	users    driven.UserStore
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(oauthSvc *application.OAuthService, users driven.UserStore, logger *slog.Logger) *Handler {
	return &Handler{
		oauthSvc: oauthSvc,
		users:    users,
		logger:   logger,
	}
}

// SignIn is the entry point Onshape opens the app with. It records the
// document context and redirects to the index page or to the authorization
// server.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := application.SignInRequest{
		UserID: q.Get("userId"),
		Server: q.Get("server"),
		Context: model.DocumentContext{
			DocumentID:  q.Get("did"),
			WVM:         q.Get("wvm"),
			WVMID:       q.Get("wvmid"),
			ElementID:   q.Get("eid"),
			ElementType: model.ElementKind(q.Get("etype")),
		},
	}

	result, err := h.oauthSvc.SignIn(r.Context(), req)
	if errors.Is(err, application.ErrMissingUserID) {
		writeText(w, http.StatusBadRequest, "Missing userId parameter")
		return
	}
	if err != nil {
		h.logger.Error("sign-in failed", "user_id", req.UserID, "error", err)
		writeText(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// Callback receives the authorization code from the authorization server,
// exchanges it for tokens and redirects to the user's index page.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	user, err := h.oauthSvc.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeCallbackError(w, err)
		return
	}

	http.Redirect(w, r, application.IndexPath(user.ExternalUserID), http.StatusFound)
}

func (h *Handler) writeCallbackError(w http.ResponseWriter, err error) {
	var tokenErr *driven.TokenEndpointError
	switch {
	case errors.Is(err, application.ErrMissingCode):
		writeText(w, http.StatusBadRequest, "Error: No authorization code received")
	case errors.As(err, &tokenErr):
		h.logger.Warn("token exchange rejected", "status", tokenErr.StatusCode)
		writeText(w, http.StatusBadRequest, "Token exchange failed: "+tokenErr.Body)
	case errors.Is(err, application.ErrOrphanedCallback):
		h.logger.Warn("orphaned oauth callback", "error", err)
		writeText(w, http.StatusNotFound, "No sign-in in progress for this user; open the app from Onshape first")
	default:
		h.logger.Error("oauth callback failed", "error", err)
		writeText(w, http.StatusBadGateway, "upstream request failed")
	}
}

// Health reports whether the credential store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.users.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Time: now})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: now})
}
