package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/urlshortcut/urlshortcut/internal/handler/dto"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/service"
)

// URLService is the short URL surface used by URLHandler and RedirectHandler.
type URLService interface {
	Create(ctx context.Context, principal string, input service.CreateURLInput) (*model.ShortURL, error)
	Get(ctx context.Context, principal, id string) (*service.URLDetails, error)
	Delete(ctx context.Context, principal, id string) error
	Resolve(ctx context.Context, id string) (*model.ShortURL, error)
}

// URLHandler handles HTTP requests for short URL management.
type URLHandler struct {
	svc       URLService
	validator *dto.Validator
	logger    *slog.Logger
}

// NewURLHandler creates a new URLHandler.
func NewURLHandler(svc URLService, validator *dto.Validator, logger *slog.Logger) *URLHandler {
	return &URLHandler{svc: svc, validator: validator, logger: logger}
}

// Register handles POST /api/urls/register.
func (h *URLHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.RegisterURLRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	u, err := h.svc.Create(r.Context(), identity, service.CreateURLInput{
		Target:      req.URL,
		Expiration:  req.Expiration,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("url_registered",
		"url_id", u.ID,
		"host", u.Host,
		"has_expiry", u.ExpiresAt != nil,
	)
	writeJSON(w, http.StatusOK, u)
}

// Get handles GET /api/urls/{id}.
func (h *URLHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	details, err := h.svc.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.URLStatisticsResponse{
		URL:     details.URL,
		Visited: details.Visits,
	})
}

// Delete handles DELETE /api/urls/{id}.
func (h *URLHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), identity, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("url_deleted", "url_id", id)
	w.WriteHeader(http.StatusNoContent)
}
