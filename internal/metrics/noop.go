package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRedirectCacheHit() {}
func (n *NoopRecorder) IncRedirectCacheMiss() {}
func (n *NoopRecorder) ObserveRedirectDuration(time.Duration) {}
func (n *NoopRecorder) IncOwnerRegistered() {}
func (n *NoopRecorder) IncOwnerDeleted() {}
func (n *NoopRecorder) IncURLCreated() {}
func (n *NoopRecorder) IncURLDeleted() {}
func (n *NoopRecorder) IncTokenIssued() {}
func (n *NoopRecorder) IncAuthFailure(string) {}
func (n *NoopRecorder) IncVisitPublished(string) {}
func (n *NoopRecorder) IncVisitProcessed(string) {}
func (n *NoopRecorder) ObserveVisitBatch(int, time.Duration) {}
func (n *NoopRecorder) SetVisitQueueDepth(int64) {}
