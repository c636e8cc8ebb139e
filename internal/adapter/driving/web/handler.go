// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/onshapeapp/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/onshapeapp/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/onshapeapp/internal/application"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	indexSvc *application.IndexService
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(indexSvc *application.IndexService, logger *slog.Logger) *Handler {
	return &Handler{
		indexSvc: indexSvc,
		logger:   logger,
	}
}

// Index renders the document and element summary for the user in the path.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	page, err := h.indexSvc.Show(r.Context(), userID)
	if errors.Is(err, application.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load index page", "user_id", userID, "error", err)
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}

	view := toIndexViewModel(page)
	title := "Onshape App"
	if view.Document != nil && view.Document.Name != "" {
		title = view.Document.Name + " | " + title
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout(title, pages.Index(view)).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render index page", "user_id", userID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
