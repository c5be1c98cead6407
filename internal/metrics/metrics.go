// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth failure reasons.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonInvalidToken       = "invalid_token"
	ReasonExpiredToken       = "expired_token"
	ReasonForbidden          = "forbidden"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Redirect metrics
	IncRedirectCacheHit()
	IncRedirectCacheMiss()
	ObserveRedirectDuration(duration time.Duration)

	// Resource management metrics
	IncOwnerRegistered()
	IncOwnerDeleted()
	IncURLCreated()
	IncURLDeleted()

	// Authentication metrics
	IncTokenIssued()
	IncAuthFailure(reason string)

	// Visit pipeline metrics
	IncVisitPublished(status string) // status: "success" or "dropped"
	IncVisitProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveVisitBatch(size int, duration time.Duration)
	SetVisitQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
