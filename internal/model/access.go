package model

import "time"

// AccessRecord is one successful redirect of a short URL.
type AccessRecord struct {
	ID        string    `json:"id"`       // ULID (time-sortable)
	EventID   string    `json:"event_id"` // Idempotency key (Redis stream ID)
	URLID     string    `json:"url_id"`
	VisitedAt time.Time `json:"visited_at"`
}
