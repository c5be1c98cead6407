package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type stubVerifier struct {
	principal *model.Principal
	err       error
}

func (s stubVerifier) Verify(string) (*model.Principal, error) {
	return s.principal, s.err
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// stubLimiter returns a fixed result and records the keys it was asked about.
type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	keys   []string
}

func (s *stubLimiter) CheckIdentityRateLimit(_ context.Context, identity string, _, _ int) (*cache.RateLimitResult, error) {
	s.keys = append(s.keys, identity)
	return s.result, s.err
}

func (s *stubLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	s.keys = append(s.keys, ip)
	return s.result, s.err
}
