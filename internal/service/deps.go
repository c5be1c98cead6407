package service

import (
	"context"
	"time"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

// OwnerStore persists servers. Mutations report affected rows so callers
// can detect a concurrent delete between load and write.
type OwnerStore interface {
	CreateOwner(ctx context.Context, owner *model.Owner) error
	GetOwnerByID(ctx context.Context, id string) (*model.Owner, error)
	GetOwnerByHost(ctx context.Context, host string) (*model.Owner, error)
	UpdateOwnerPassword(ctx context.Context, id, passwordHash string) (int64, error)
	DeleteOwner(ctx context.Context, id string) (int64, error)
}

// URLStore persists short URLs and reads their visit counts.
type URLStore interface {
	CreateURL(ctx context.Context, u *model.ShortURL) error
	GetURLByID(ctx context.Context, id string) (*model.ShortURL, error)
	ListURLsByOwner(ctx context.Context, ownerID string) ([]*model.ShortURL, error)
	DeleteURL(ctx context.Context, id string) (int64, error)
	CountVisits(ctx context.Context, urlID string) (int64, error)
}

// PasswordHasher hashes and verifies owner passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	VerifyDummy(password string)
}

// TokenSigner produces signed access tokens for an identity.
type TokenSigner interface {
	Issue(identity string) (*model.IssuedToken, error)
}

// URLCache caches redirect data in front of the URLStore.
// SetURL must not write an id that is negatively cached, and DeleteURL
// must leave a negative entry behind.
type URLCache interface {
	GetURL(ctx context.Context, id string) (*model.ShortURL, error)
	SetURL(ctx context.Context, u *model.ShortURL) error
	DeleteURL(ctx context.Context, ids ...string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// VisitRecorder records successful redirects asynchronously.
type VisitRecorder interface {
	RecordVisit(urlID string, visitedAt time.Time)
}
