package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/repository"
)

// URLService handles short URL management and redirect resolution.
type URLService struct {
	owners  OwnerStore
	urls    URLStore
	cache   URLCache
	visits  VisitRecorder
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewURLService creates a new URLService. visits may be nil.
func NewURLService(owners OwnerStore, urls URLStore, cache URLCache, visits VisitRecorder, logger *slog.Logger, recorder metrics.Recorder) *URLService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &URLService{
		owners:  owners,
		urls:    urls,
		cache:   cache,
		visits:  visits,
		logger:  logger.With("component", "service.url"),
		metrics: recorder,
		now:     time.Now,
	}
}

// CreateURLInput defines input for registering a short URL.
type CreateURLInput struct {
	Target      string
	Expiration  int64 // seconds from creation; 0 means never
	Description *string
}

// URLDetails is a short URL together with its visit count.
type URLDetails struct {
	URL    *model.ShortURL
	Visits int64
}

// Create registers a URL for the principal. The target's host must be
// the principal's own identity; that check runs before any write.
func (s *URLService) Create(ctx context.Context, principal string, input CreateURLInput) (*model.ShortURL, error) {
	if input.Expiration < 0 {
		return nil, ErrInvalidInput
	}

	host, err := targetHost(input.Target)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(principal, host); err != nil {
		s.metrics.IncAuthFailure(metrics.ReasonForbidden)
		return nil, err
	}

	owner, err := s.owners.GetOwnerByHost(ctx, host)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	created := s.now().UTC().Truncate(time.Second)
	u := &model.ShortURL{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Host:        host,
		Target:      input.Target,
		Status:      model.StatusRegistered,
		Description: input.Description,
		CreatedAt:   created,
	}
	if input.Expiration > 0 {
		expires := created.Add(time.Duration(input.Expiration) * time.Second)
		u.ExpiresAt = &expires
	}

	if err := s.urls.CreateURL(ctx, u); err != nil {
		if errors.Is(err, repository.ErrOwnerMissing) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to create url: %w", err)
	}

	s.metrics.IncURLCreated()
	return u, nil
}

// Get returns a URL and its visit count to the principal that owns it.
func (s *URLService) Get(ctx context.Context, principal, id string) (*URLDetails, error) {
	u, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	visits, err := s.urls.CountVisits(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &URLDetails{URL: u, Visits: visits}, nil
}

// Delete removes a URL owned by the principal.
func (s *URLService) Delete(ctx context.Context, principal, id string) error {
	u, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return err
	}

	affected, err := s.urls.DeleteURL(ctx, u.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrURLNotFound
	}

	s.metrics.IncURLDeleted()

	if err := s.cache.DeleteURL(ctx, u.ID); err != nil {
		s.logger.Warn("failed to evict cached url", "url_id", u.ID, "error", err)
	}
	return nil
}

// Resolve returns the redirect target for id and records the visit.
// This is the hot path: cache first, then negative cache, then database.
func (s *URLService) Resolve(ctx context.Context, id string) (*model.ShortURL, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveRedirectDuration(time.Since(start))
	}()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrURLNotFound
	}

	u, err := s.cache.GetURL(ctx, id)
	switch {
	case err == nil:
		s.metrics.IncRedirectCacheHit()
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.IncRedirectCacheMiss()
		if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
			return nil, ErrURLNotFound
		}
		u = nil
	default:
		s.logger.Warn("redirect cache unavailable", "error", err)
		u = nil
	}

	if u == nil {
		u, err = s.urls.GetURLByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrURLNotFound) {
				_ = s.cache.SetNegativeCache(ctx, id)
				return nil, ErrURLNotFound
			}
			return nil, err
		}
		if err := s.cache.SetURL(ctx, u); err != nil {
			s.logger.Warn("failed to backfill redirect cache", "url_id", id, "error", err)
		}
	}

	now := s.now()
	if u.IsExpiredAt(now) {
		return nil, ErrURLExpired
	}

	if s.visits != nil {
		s.visits.RecordVisit(u.ID, now)
	}
	return u, nil
}

func (s *URLService) loadAuthorized(ctx context.Context, principal, id string) (*model.ShortURL, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrURLNotFound
	}

	u, err := s.urls.GetURLByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, ErrURLNotFound
		}
		return nil, err
	}

	if err := auth.Authorize(principal, u.Host); err != nil {
		s.metrics.IncAuthFailure(metrics.ReasonForbidden)
		return nil, err
	}
	return u, nil
}

// targetHost parses an absolute http(s) URL and returns its host without port.
func targetHost(target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidURL
	}
	host := parsed.Hostname()
	if host == "" {
		return "", ErrInvalidURL
	}
	return host, nil
}
