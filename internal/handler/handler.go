// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/handler/dto"
	"github.com/urlshortcut/urlshortcut/internal/service"
)

// Error codes returned in the "code" field.
const (
	codeInvalidJSON        = "INVALID_JSON"
	codeValidation         = "VALIDATION_FAILED"
	codeInvalidInput       = "INVALID_INPUT"
	codeInvalidURL         = "INVALID_URL"
	codeServerNotFound     = "SERVER_NOT_FOUND"
	codeURLNotFound        = "URL_NOT_FOUND"
	codeURLExpired         = "URL_EXPIRED"
	codeServerExists       = "SERVER_EXISTS"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeTokenExpired       = "TOKEN_EXPIRED"
	codeForbidden          = "FORBIDDEN"
	codeInternal           = "INTERNAL_ERROR"
)

// Handler serves the fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeBody decodes a JSON request body into dst and validates it.
// It writes the 400 response itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v *dto.Validator, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, codeInvalidJSON, msg)
		return false
	}
	if err := v.Validate(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return false
	}
	return true
}

// principal returns the authenticated identity or writes a 401.
// Routes using it sit behind the auth middleware, so the 401 branch
// only fires on a wiring mistake.
func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return "", false
	}
	return identity, true
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrOwnerNotFound):
		writeError(w, http.StatusNotFound, codeServerNotFound, "server not found")
	case errors.Is(err, service.ErrURLNotFound):
		writeError(w, http.StatusNotFound, codeURLNotFound, "url not found")
	case errors.Is(err, service.ErrURLExpired):
		writeError(w, http.StatusGone, codeURLExpired, "url is inactive anymore")
	case errors.Is(err, service.ErrOwnerExists):
		writeError(w, http.StatusConflict, codeServerExists, "server with this host already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "password is incorrect")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, codeTokenExpired, "token expired")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "access to this resource is forbidden")
	case errors.Is(err, service.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, codeInvalidURL, "url is incorrect")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid input")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "an internal error occurred")
	}
}
