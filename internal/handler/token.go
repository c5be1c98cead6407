package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/urlshortcut/urlshortcut/internal/handler/dto"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

// TokenService exchanges server credentials for an access token.
type TokenService interface {
	Issue(ctx context.Context, id, password string) (*model.IssuedToken, error)
}

// TokenHandler handles token requests.
type TokenHandler struct {
	svc       TokenService
	validator *dto.Validator
	logger    *slog.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(svc TokenService, validator *dto.Validator, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{svc: svc, validator: validator, logger: logger}
}

// Issue handles POST /api/token.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	token, err := h.svc.Issue(r.Context(), req.ID, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("token_issued", "identity", token.Identity, "expires_at", token.ExpiresAt)
	writeJSON(w, http.StatusOK, token)
}
