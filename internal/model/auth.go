package model

import "time"

// ScopeUser is the only scope issued to owners.
const ScopeUser = "USER"

// Principal is the authenticated identity extracted from a verified token.
type Principal struct {
	Identity  string
	Scope     string
	ExpiresAt time.Time
}

// HasScope reports whether the principal carries scope.
func (p *Principal) HasScope(scope string) bool {
	return p != nil && p.Scope == scope
}

// IssuedToken is the result of a successful token request.
type IssuedToken struct {
	Identity  string    `json:"identity"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Token     string    `json:"token"`
}
