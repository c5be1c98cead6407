package model

import (
	"strconv"
	"time"
)

// ShortURL is a redirect entry owned by exactly one host.
type ShortURL struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"serverId"`
	Host        string     `json:"host"` // Owning identity, fixed at creation
	Target      string     `json:"url"`
	Status      Status     `json:"status"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// IsExpiredAt reports whether the entry is inert for redirection at now.
// An entry whose expiry equals now is still live.
func (u *ShortURL) IsExpiredAt(now time.Time) bool {
	return u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}

// CachedURL is the redirect data kept in a Redis hash.
type CachedURL struct {
	Target    string `redis:"target"`
	Host      string `redis:"host"`
	ExpiresAt string `redis:"expires_at"` // Unix timestamp or empty
}

// ToCachedURL converts the entry into its cache representation.
func (u *ShortURL) ToCachedURL() *CachedURL {
	cached := &CachedURL{
		Target: u.Target,
		Host:   u.Host,
	}
	if u.ExpiresAt != nil {
		cached.ExpiresAt = strconv.FormatInt(u.ExpiresAt.Unix(), 10)
	}
	return cached
}

// ToShortURL rebuilds the redirect-relevant fields of a ShortURL.
func (c *CachedURL) ToShortURL(id string) *ShortURL {
	u := &ShortURL{
		ID:     id,
		Target: c.Target,
		Host:   c.Host,
	}
	if c.ExpiresAt != "" {
		if ts, err := strconv.ParseInt(c.ExpiresAt, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			u.ExpiresAt = &t
		}
	}
	return u
}
