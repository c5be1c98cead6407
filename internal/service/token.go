package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

// TokenService exchanges a server id and password for an access token.
type TokenService struct {
	owners  OwnerStore
	hasher  PasswordHasher
	signer  TokenSigner
	metrics metrics.Recorder
}

// NewTokenService creates a new TokenService.
func NewTokenService(owners OwnerStore, hasher PasswordHasher, signer TokenSigner, recorder metrics.Recorder) *TokenService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TokenService{
		owners:  owners,
		hasher:  hasher,
		signer:  signer,
		metrics: recorder,
	}
}

// Issue verifies the password of server id and signs a token for its host.
// Unknown and malformed ids still pay for one hash verification.
func (s *TokenService) Issue(ctx context.Context, id, password string) (*model.IssuedToken, error) {
	owner, err := getOwner(ctx, s.owners, id)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			s.hasher.VerifyDummy(password)
			s.metrics.IncAuthFailure(metrics.ReasonInvalidCredentials)
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, owner.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure(metrics.ReasonInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := s.signer.Issue(owner.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncTokenIssued()
	return token, nil
}
