package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

// RequireScope returns middleware that enforces scope requirements.
// Must be applied after Auth middleware.
// If multiple scopes are provided, having ANY of them is sufficient.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
				return
			}

			if slices.ContainsFunc(required, principal.HasScope) {
				next.ServeHTTP(w, r)
				return
			}

			writeError(w, http.StatusForbidden, CodeForbidden,
				fmt.Sprintf("insufficient permissions, required scope: %s", required[0]))
		})
	}
}

// RequireUser is a convenience middleware for the USER scope.
func RequireUser() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeUser)
}
