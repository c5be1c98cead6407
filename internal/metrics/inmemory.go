package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RedirectCacheHits       uint64
	RedirectCacheMisses     uint64
	RedirectDurationCount   uint64
	RedirectDurationTotalNs int64

	OwnersRegistered uint64
	OwnersDeleted    uint64
	URLsCreated      uint64
	URLsDeleted      uint64

	TokensIssued uint64
	AuthFailures map[string]uint64

	VisitsPublished      uint64
	VisitsDropped        uint64
	VisitsProcessed      map[string]uint64
	VisitBatchCount      uint64
	VisitBatchEvents     uint64
	VisitBatchDurationNs int64
	VisitQueueDepth      int64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint.
type InMemoryRecorder struct {
	redirectCacheHits       uint64
	redirectCacheMisses     uint64
	redirectDurationCount   uint64
	redirectDurationTotalNs int64

	ownersRegistered uint64
	ownersDeleted    uint64
	urlsCreated      uint64
	urlsDeleted      uint64
	tokensIssued     uint64

	visitsPublished      uint64
	visitsDropped        uint64
	visitBatchCount      uint64
	visitBatchEvents     uint64
	visitBatchDurationNs int64
	visitQueueDepth      int64

	mu              sync.Mutex
	authFailures    map[string]uint64
	visitsProcessed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures:    make(map[string]uint64),
		visitsProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	failures := make(map[string]uint64, len(m.authFailures))
	for k, v := range m.authFailures {
		failures[k] = v
	}
	processed := make(map[string]uint64, len(m.visitsProcessed))
	for k, v := range m.visitsProcessed {
		processed[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		RedirectCacheHits:       atomic.LoadUint64(&m.redirectCacheHits),
		RedirectCacheMisses:     atomic.LoadUint64(&m.redirectCacheMisses),
		RedirectDurationCount:   atomic.LoadUint64(&m.redirectDurationCount),
		RedirectDurationTotalNs: atomic.LoadInt64(&m.redirectDurationTotalNs),
		OwnersRegistered:        atomic.LoadUint64(&m.ownersRegistered),
		OwnersDeleted:           atomic.LoadUint64(&m.ownersDeleted),
		URLsCreated:             atomic.LoadUint64(&m.urlsCreated),
		URLsDeleted:             atomic.LoadUint64(&m.urlsDeleted),
		TokensIssued:            atomic.LoadUint64(&m.tokensIssued),
		AuthFailures:            failures,
		VisitsPublished:         atomic.LoadUint64(&m.visitsPublished),
		VisitsDropped:           atomic.LoadUint64(&m.visitsDropped),
		VisitsProcessed:         processed,
		VisitBatchCount:         atomic.LoadUint64(&m.visitBatchCount),
		VisitBatchEvents:        atomic.LoadUint64(&m.visitBatchEvents),
		VisitBatchDurationNs:    atomic.LoadInt64(&m.visitBatchDurationNs),
		VisitQueueDepth:         atomic.LoadInt64(&m.visitQueueDepth),
	}
}

// IncRedirectCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncRedirectCacheHit() {
	atomic.AddUint64(&m.redirectCacheHits, 1)
}

// IncRedirectCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncRedirectCacheMiss() {
	atomic.AddUint64(&m.redirectCacheMisses, 1)
}

// ObserveRedirectDuration records redirect duration.
func (m *InMemoryRecorder) ObserveRedirectDuration(duration time.Duration) {
	atomic.AddUint64(&m.redirectDurationCount, 1)
	atomic.AddInt64(&m.redirectDurationTotalNs, duration.Nanoseconds())
}

func (m *InMemoryRecorder) IncOwnerRegistered() { atomic.AddUint64(&m.ownersRegistered, 1) }
func (m *InMemoryRecorder) IncOwnerDeleted() { atomic.AddUint64(&m.ownersDeleted, 1) }
func (m *InMemoryRecorder) IncURLCreated() { atomic.AddUint64(&m.urlsCreated, 1) }
func (m *InMemoryRecorder) IncURLDeleted() { atomic.AddUint64(&m.urlsDeleted, 1) }
func (m *InMemoryRecorder) IncTokenIssued() { atomic.AddUint64(&m.tokensIssued, 1) }

// IncAuthFailure counts a rejected authentication or authorization attempt.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.mu.Lock()
	m.authFailures[reason]++
	m.mu.Unlock()
}

// IncVisitPublished counts visit events handed to the stream.
func (m *InMemoryRecorder) IncVisitPublished(status string) {
	if status == "dropped" {
		atomic.AddUint64(&m.visitsDropped, 1)
		return
	}
	atomic.AddUint64(&m.visitsPublished, 1)
}

// IncVisitProcessed counts visit events by worker outcome.
func (m *InMemoryRecorder) IncVisitProcessed(status string) {
	m.mu.Lock()
	m.visitsProcessed[status]++
	m.mu.Unlock()
}

// ObserveVisitBatch records one persisted batch.
func (m *InMemoryRecorder) ObserveVisitBatch(size int, duration time.Duration) {
	atomic.AddUint64(&m.visitBatchCount, 1)
	atomic.AddUint64(&m.visitBatchEvents, uint64(size))
	atomic.AddInt64(&m.visitBatchDurationNs, duration.Nanoseconds())
}

// SetVisitQueueDepth records pending plus undelivered stream entries.
func (m *InMemoryRecorder) SetVisitQueueDepth(depth int64) {
	atomic.StoreInt64(&m.visitQueueDepth, depth)
}
