package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

func authedRequest(identity string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/urls/x", nil)
	principal := &model.Principal{Identity: identity, Scope: model.ScopeUser}
	return req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
}

func TestRateLimitAPI(t *testing.T) {
	t.Parallel()

	reset := time.Unix(1700000000, 0)
	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
	}{
		{
			name:       "allowed",
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: reset}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejected",
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: false, ResetAt: reset, RetryAfter: 3 * time.Second}},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "limiter error fails open",
			limiter:    &stubLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RateLimitAPI(RateLimitConfig{
				Logger:           discardLogger(),
				Limiter:          tt.limiter,
				APIEnabled:       true,
				APIRatePerMinute: 60,
				APIBurst:         5,
			})(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest("example.com"))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, []string{"example.com"}, tt.limiter.keys)
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "3", rec.Header().Get("Retry-After"))
				assert.Equal(t, CodeRateLimited, decodeError(t, rec).Code)
			}
			if tt.limiter.err == nil {
				assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
				assert.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
			}
		})
	}
}

func TestRateLimitAPI_SkipsWithoutPrincipalOrWhenDisabled(t *testing.T) {
	t.Parallel()

	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: false}}

	enabled := RateLimitAPI(RateLimitConfig{Logger: discardLogger(), Limiter: limiter, APIEnabled: true, APIRatePerMinute: 1})(okHandler())
	rec := httptest.NewRecorder()
	enabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	disabled := RateLimitAPI(RateLimitConfig{Logger: discardLogger(), Limiter: limiter})(okHandler())
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, authedRequest("example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, limiter.keys)
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: time.Second}}
	handler := RateLimitIP(RateLimitConfig{
		Logger:    discardLogger(),
		Limiter:   limiter,
		IPEnabled: true,
		IPRPS:     10,
		IPBurst:   20,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/redirect/x", nil)
	req.RemoteAddr = "10.0.0.7:52311"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, []string{"10.0.0.7"}, limiter.keys)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"RemoteAddr with port", "", "192.168.1.1:12345", "192.168.1.1"},
		{"RemoteAddr without port", "", "192.168.1.1", "192.168.1.1"},
		{"X-Forwarded-For ignored", "1.2.3.4", "192.168.1.1:12345", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			req.RemoteAddr = tt.remoteAddr

			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
