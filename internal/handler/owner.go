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

// OwnerService is the server management surface used by OwnerHandler.
type OwnerService interface {
	Register(ctx context.Context, input service.RegisterOwnerInput) (*model.Owner, error)
	Get(ctx context.Context, principal, id string) (*service.OwnerDetails, error)
	UpdatePassword(ctx context.Context, principal, id, newPassword string) (bool, error)
	Delete(ctx context.Context, principal, id string) error
}

// OwnerHandler handles HTTP requests for server operations.
type OwnerHandler struct {
	svc       OwnerService
	validator *dto.Validator
	logger    *slog.Logger
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(svc OwnerService, validator *dto.Validator, logger *slog.Logger) *OwnerHandler {
	return &OwnerHandler{svc: svc, validator: validator, logger: logger}
}

// Register handles POST /api/servers/register.
func (h *OwnerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterServerRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	owner, err := h.svc.Register(r.Context(), service.RegisterOwnerInput{
		Host:        req.Host,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("server_registered", "server_id", owner.ID, "host", owner.Host)
	writeJSON(w, http.StatusOK, owner)
}

// Get handles GET /api/servers/{id}.
func (h *OwnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	details, err := h.svc.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ServerStatisticsResponse{
		Server: details.Owner,
		URLs:   details.URLs,
	})
}

// UpdatePassword handles PATCH /api/servers/{id}.
func (h *OwnerHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.PasswordRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.svc.UpdatePassword(r.Context(), identity, id, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !updated {
		handleServiceError(w, h.logger, service.ErrOwnerNotFound)
		return
	}

	h.logger.Info("server_password_updated", "server_id", id)
	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/servers/{id}.
func (h *OwnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), identity, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("server_deleted", "server_id", id)
	w.WriteHeader(http.StatusNoContent)
}
