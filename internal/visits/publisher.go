// Package visits records successful redirects through a Redis stream.
package visits

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urlshortcut/urlshortcut/internal/metrics"
)

const (
	// StreamKey is the Redis stream for visit events.
	StreamKey = "stream:url_visits"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:url_visits:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Payload is the compact event format stored in the stream.
type Payload struct {
	URLID     string `json:"uid"`
	VisitedAt int64  `json:"t"` // Unix milliseconds
}

// NewPayload builds the stream payload for a redirect of urlID at t.
func NewPayload(urlID string, t time.Time) Payload {
	return Payload{URLID: urlID, VisitedAt: t.UnixMilli()}
}

// Publisher enqueues visit events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new visit publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "visits.publisher"),
		metrics: recorder,
	}
}

// Publish adds a visit event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Payload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{"payload": string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// RecordVisit publishes without blocking the redirect path.
// Errors are logged and counted, never returned.
func (p *Publisher) RecordVisit(urlID string, visitedAt time.Time) {
	event := NewPayload(urlID, visitedAt)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish visit",
				"url_id", event.URLID,
				"error", err,
			)
			p.metrics.IncVisitPublished("dropped")
			return
		}

		p.logger.Debug("visit published",
			"url_id", event.URLID,
			"stream_id", streamID,
		)
		p.metrics.IncVisitPublished("success")
	}()
}
