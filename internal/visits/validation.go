package visits

import (
	"errors"

	"github.com/google/uuid"
)

// ValidatePayload checks a decoded stream payload.
func ValidatePayload(p Payload) error {
	if p.URLID == "" {
		return errors.New("url id is required")
	}
	if _, err := uuid.Parse(p.URLID); err != nil {
		return errors.New("url id must be a uuid")
	}
	if p.VisitedAt <= 0 {
		return errors.New("visited_at must be set")
	}
	return nil
}
