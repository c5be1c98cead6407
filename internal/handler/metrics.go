package handler

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/urlshortcut/urlshortcut/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "urlshortcut_redirect_cache_hits_total %d\n", snap.RedirectCacheHits)
	writeMetric(w, "urlshortcut_redirect_cache_misses_total %d\n", snap.RedirectCacheMisses)
	writeMetric(w, "urlshortcut_redirect_duration_seconds_count %d\n", snap.RedirectDurationCount)
	writeMetric(w, "urlshortcut_redirect_duration_seconds_sum %.6f\n", float64(snap.RedirectDurationTotalNs)/1e9)

	writeMetric(w, "urlshortcut_servers_registered_total %d\n", snap.OwnersRegistered)
	writeMetric(w, "urlshortcut_servers_deleted_total %d\n", snap.OwnersDeleted)
	writeMetric(w, "urlshortcut_urls_created_total %d\n", snap.URLsCreated)
	writeMetric(w, "urlshortcut_urls_deleted_total %d\n", snap.URLsDeleted)

	writeMetric(w, "urlshortcut_tokens_issued_total %d\n", snap.TokensIssued)
	writeLabeled(w, "urlshortcut_auth_failures_total", "reason", snap.AuthFailures)

	writeMetric(w, "urlshortcut_visits_published_total{status=\"success\"} %d\n", snap.VisitsPublished)
	writeMetric(w, "urlshortcut_visits_published_total{status=\"dropped\"} %d\n", snap.VisitsDropped)
	writeLabeled(w, "urlshortcut_visits_processed_total", "status", snap.VisitsProcessed)

	writeMetric(w, "urlshortcut_visit_batches_total %d\n", snap.VisitBatchCount)
	writeMetric(w, "urlshortcut_visit_batch_events_total %d\n", snap.VisitBatchEvents)
	writeMetric(w, "urlshortcut_visit_batch_duration_seconds_sum %.6f\n", float64(snap.VisitBatchDurationNs)/1e9)
	writeMetric(w, "urlshortcut_visit_queue_depth %d\n", snap.VisitQueueDepth)
}

// writeLabeled writes one sample per label value, sorted for stable output.
func writeLabeled(w io.Writer, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
