// Package model defines domain entities for the application.
package model

import "time"

// Status is the lifecycle state shared by owners and short URLs.
// Transitions are forward-only: REGISTERED -> VERIFIED -> BLOCKED.
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusVerified   Status = "VERIFIED"
	StatusBlocked    Status = "BLOCKED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusRegistered, StatusVerified, StatusBlocked:
		return true
	}
	return false
}

// Owner is a registered client host. On the wire it is called a server.
type Owner struct {
	ID           string    `json:"id"`
	Host         string    `json:"host"`
	PasswordHash string    `json:"-"` // Never serialize
	Status       Status    `json:"status"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
