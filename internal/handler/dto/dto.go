// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/urlshortcut/urlshortcut/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterServerRequest is the body of POST /api/servers/register.
type RegisterServerRequest struct {
	Host        string  `json:"host" validate:"required,hostname_rfc1123"`
	Password    string  `json:"password" validate:"required,password"`
	Description *string `json:"description" validate:"omitempty,max=256"`
}

// PasswordRequest is the body of PATCH /api/servers/{id}.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

// TokenRequest is the body of POST /api/token.
type TokenRequest struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterURLRequest is the body of POST /api/urls/register.
// Expiration is in seconds from creation; 0 means the URL never expires.
type RegisterURLRequest struct {
	URL         string  `json:"url" validate:"required,max=8192"`
	Expiration  int64   `json:"expiration" validate:"gte=0"`
	Description *string `json:"description" validate:"omitempty,max=256"`
}

// ServerStatisticsResponse is a server with every URL it owns.
type ServerStatisticsResponse struct {
	Server *model.Owner      `json:"server"`
	URLs   []*model.ShortURL `json:"urls"`
}

// URLStatisticsResponse is a URL with its visit count.
type URLStatisticsResponse struct {
	URL     *model.ShortURL `json:"url"`
	Visited int64           `json:"visited"`
}
