package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/urlshortcut/urlshortcut/internal/service"
)

// RedirectHandler handles redirect requests.
type RedirectHandler struct {
	svc    URLService
	logger *slog.Logger
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(svc URLService, logger *slog.Logger) *RedirectHandler {
	return &RedirectHandler{svc: svc, logger: logger}
}

// Redirect handles GET /redirect/{id}. Visits are recorded by the service.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	start := time.Now()

	u, err := h.svc.Resolve(r.Context(), id)
	duration := time.Since(start)
	if err != nil {
		h.handleRedirectError(w, id, err, duration)
		return
	}

	h.logger.Info("redirect_success",
		"url_id", id,
		"duration_ms", float64(duration.Microseconds())/1000,
	)

	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, u.Target, http.StatusFound)
}

func (h *RedirectHandler) handleRedirectError(w http.ResponseWriter, id string, err error, duration time.Duration) {
	w.Header().Set("Cache-Control", "private, max-age=0")

	switch {
	case errors.Is(err, service.ErrURLNotFound):
		h.logger.Info("redirect_not_found",
			"url_id", id,
			"duration_ms", float64(duration.Microseconds())/1000,
		)
	case errors.Is(err, service.ErrURLExpired):
		h.logger.Info("redirect_expired",
			"url_id", id,
			"duration_ms", float64(duration.Microseconds())/1000,
		)
	}
	handleServiceError(w, h.logger, err)
}
