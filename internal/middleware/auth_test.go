package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

func TestAuth_RealTokens(t *testing.T) {
	t.Parallel()

	cfg := auth.TokenConfig{
		Issuer:    "localhost",
		Algorithm: "HS256",
		Secret:    []byte(strings.Repeat("k", 64)),
		TTL:       time.Hour,
	}
	issuedAt := time.Now().Add(-2 * time.Hour)
	oldIssuer, err := auth.NewTokenIssuer(cfg, auth.WithClock(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(cfg)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier(cfg)
	require.NoError(t, err)

	fresh, err := issuer.Issue("example.com")
	require.NoError(t, err)
	stale, err := oldIssuer.Issue("example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "Bearer " + fresh.Token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + fresh.Token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, CodeUnauthorized},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, CodeUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, CodeUnauthorized},
		{"expired token", "Bearer " + stale.Token, http.StatusUnauthorized, CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *model.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = auth.PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := Auth(AuthConfig{Logger: discardLogger(), Verifier: verifier})(next)

			req := httptest.NewRequest(http.MethodGet, "/api/urls/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode == "" {
				require.NotNil(t, seen)
				assert.Equal(t, "example.com", seen.Identity)
				return
			}
			assert.Nil(t, seen, "handler must not run")
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAuth_RecordsFailureReason(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	handler := Auth(AuthConfig{
		Logger:   discardLogger(),
		Verifier: stubVerifier{err: fmt.Errorf("wrapped: %w", auth.ErrTokenExpired)},
		Metrics:  rec,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	snap := rec.Snapshot()
	assert.Equal(t, uint64(1), snap.AuthFailures[metrics.ReasonExpiredToken])
	assert.Equal(t, uint64(1), snap.AuthFailures[metrics.ReasonInvalidToken])
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"BEARER abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(req), "header %q", tt.header)
	}
}
