package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/repository"
)

// OwnerService handles server registration and self-management.
type OwnerService struct {
	owners  OwnerStore
	urls    URLStore
	hasher  PasswordHasher
	cache   URLCache
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewOwnerService creates a new OwnerService.
func NewOwnerService(owners OwnerStore, urls URLStore, hasher PasswordHasher, cache URLCache, logger *slog.Logger, recorder metrics.Recorder) *OwnerService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &OwnerService{
		owners:  owners,
		urls:    urls,
		hasher:  hasher,
		cache:   cache,
		logger:  logger.With("component", "service.owner"),
		metrics: recorder,
		now:     time.Now,
	}
}

// RegisterOwnerInput defines input for registering a server.
type RegisterOwnerInput struct {
	Host        string
	Password    string
	Description *string
}

// OwnerDetails is a server together with its URLs.
type OwnerDetails struct {
	Owner *model.Owner
	URLs  []*model.ShortURL
}

// Register stores a new server with a hashed password and status REGISTERED.
func (s *OwnerService) Register(ctx context.Context, input RegisterOwnerInput) (*model.Owner, error) {
	if input.Host == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	owner := &model.Owner{
		ID:           uuid.NewString(),
		Host:         input.Host,
		PasswordHash: hash,
		Status:       model.StatusRegistered,
		Description:  input.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.owners.CreateOwner(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrHostExists) {
			return nil, ErrOwnerExists
		}
		return nil, fmt.Errorf("failed to register server: %w", err)
	}

	s.metrics.IncOwnerRegistered()
	return owner, nil
}

// Get returns a server and its URLs to the principal that owns it.
func (s *OwnerService) Get(ctx context.Context, principal, id string) (*OwnerDetails, error) {
	owner, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	urls, err := s.urls.ListURLsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list server urls: %w", err)
	}

	return &OwnerDetails{Owner: owner, URLs: urls}, nil
}

// UpdatePassword replaces the server's password. It reports false when
// the server disappeared between the ownership check and the update.
func (s *OwnerService) UpdatePassword(ctx context.Context, principal, id, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, ErrInvalidInput
	}

	owner, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return false, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	affected, err := s.owners.UpdateOwnerPassword(ctx, owner.ID, hash)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Delete removes a server and every URL it owns.
func (s *OwnerService) Delete(ctx context.Context, principal, id string) error {
	owner, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return err
	}

	urls, err := s.urls.ListURLsByOwner(ctx, owner.ID)
	if err != nil {
		return fmt.Errorf("failed to list server urls: %w", err)
	}

	affected, err := s.owners.DeleteOwner(ctx, owner.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOwnerNotFound
	}

	s.metrics.IncOwnerDeleted()

	if len(urls) > 0 {
		ids := make([]string, len(urls))
		for i, u := range urls {
			ids[i] = u.ID
		}
		if err := s.cache.DeleteURL(ctx, ids...); err != nil {
			s.logger.Warn("failed to evict cached urls", "server_id", owner.ID, "error", err)
		}
	}

	return nil
}

// loadAuthorized loads a server by id and runs the ownership guard on it.
func (s *OwnerService) loadAuthorized(ctx context.Context, principal, id string) (*model.Owner, error) {
	owner, err := getOwner(ctx, s.owners, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, owner.Host); err != nil {
		s.metrics.IncAuthFailure(metrics.ReasonForbidden)
		return nil, err
	}
	return owner, nil
}

// getOwner maps malformed ids and missing rows to ErrOwnerNotFound.
func getOwner(ctx context.Context, store OwnerStore, id string) (*model.Owner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOwnerNotFound
	}

	owner, err := store.GetOwnerByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return owner, nil
}
