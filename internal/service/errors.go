// Package service provides business logic for the application.
package service

import (
	"errors"

	"github.com/urlshortcut/urlshortcut/internal/auth"
)

// Service errors.
var (
	ErrOwnerNotFound      = errors.New("server not found")
	ErrOwnerExists        = errors.New("server with this host already registered")
	ErrInvalidCredentials = errors.New("password is incorrect")
	ErrURLNotFound        = errors.New("url not found")
	ErrURLExpired         = errors.New("url is expired")
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrForbidden is returned when the principal does not own the resource.
	ErrForbidden = auth.ErrForbidden
)
