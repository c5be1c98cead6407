package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	rec.IncRedirectCacheHit()
	rec.IncRedirectCacheHit()
	rec.IncRedirectCacheMiss()
	rec.ObserveRedirectDuration(1500 * time.Millisecond)
	rec.IncOwnerRegistered()
	rec.IncURLCreated()
	rec.IncTokenIssued()
	rec.IncAuthFailure(metrics.ReasonInvalidToken)
	rec.IncAuthFailure(metrics.ReasonExpiredToken)
	rec.IncAuthFailure(metrics.ReasonExpiredToken)

	w := httptest.NewRecorder()
	NewMetricsHandler(rec).Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; version=0.0.4", w.Header().Get("Content-Type"))

	body := w.Body.String()
	for _, line := range []string{
		"urlshortcut_redirect_cache_hits_total 2",
		"urlshortcut_redirect_cache_misses_total 1",
		"urlshortcut_redirect_duration_seconds_count 1",
		"urlshortcut_redirect_duration_seconds_sum 1.500000",
		"urlshortcut_servers_registered_total 1",
		"urlshortcut_urls_created_total 1",
		"urlshortcut_tokens_issued_total 1",
	} {
		assert.Contains(t, body, line+"\n")
	}

	expired := strings.Index(body, `urlshortcut_auth_failures_total{reason="expired_token"} 2`)
	invalid := strings.Index(body, `urlshortcut_auth_failures_total{reason="invalid_token"} 1`)
	require.NotEqual(t, -1, expired)
	require.NotEqual(t, -1, invalid)
	assert.Less(t, expired, invalid, "labels are sorted")
}

func TestMetricsHandler_Unconfigured(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
