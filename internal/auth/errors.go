package auth

import "errors"

var (
	// ErrTokenInvalid covers bad signatures, wrong issuer or audience,
	// missing claims and insufficient scope.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired indicates the token is past its expiry instant.
	ErrTokenExpired = errors.New("token is expired")
	// ErrForbidden indicates the principal does not own the resource.
	ErrForbidden = errors.New("access forbidden")

	// ErrUnsupportedAlgorithm indicates a signing algorithm other than HS256/384/512.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrWeakSecret indicates a signing secret shorter than the algorithm requires.
	ErrWeakSecret = errors.New("signing secret too short for algorithm")
)
