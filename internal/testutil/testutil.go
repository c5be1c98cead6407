// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731_042

// AcquireDBLock grabs a global advisory lock to serialize DB tests
// across packages that share one database.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// SetupPostgres connects to DATABASE_URL, takes the advisory lock and
// rebuilds the schema from the embedded migrations. Everything is
// released through t.Cleanup.
func SetupPostgres(t testing.TB) *repository.Repository {
	t.Helper()
	databaseURL := RequireEnv(t, "DATABASE_URL")
	ctx := context.Background()

	repo, err := repository.New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	unlock, err := AcquireDBLock(ctx, repo.Pool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = unlock() })

	require.NoError(t, repository.ResetSchema(ctx, databaseURL))
	return repo
}

// SetupCache connects to REDIS_URL and flushes the current database.
func SetupCache(t testing.TB) *cache.Cache {
	t.Helper()
	ctx := context.Background()

	c, err := cache.New(ctx, RequireEnv(t, "REDIS_URL"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Client().FlushDB(ctx).Err())
	return c
}

var hostSeq atomic.Int64

// UniqueHost returns a host name no other test in this process uses.
func UniqueHost(prefix string) string {
	return fmt.Sprintf("%s-%d-%d.example.com", prefix, time.Now().UnixNano(), hostSeq.Add(1))
}

// NewTestOwner builds an unsaved server with a placeholder hash.
func NewTestOwner(t testing.TB, host string) *model.Owner {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Owner{
		ID:           uuid.NewString(),
		Host:         host,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Status:       model.StatusRegistered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestURL builds an unsaved short URL belonging to owner.
func NewTestURL(t testing.TB, owner *model.Owner, path string) *model.ShortURL {
	t.Helper()
	return &model.ShortURL{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Host:      owner.Host,
		Target:    "https://" + owner.Host + "/" + path,
		Status:    model.StatusRegistered,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// NewTestURLWithExpiry is NewTestURL with an expiry time.
func NewTestURLWithExpiry(t testing.TB, owner *model.Owner, path string, expiresAt time.Time) *model.ShortURL {
	t.Helper()
	u := NewTestURL(t, owner, path)
	u.ExpiresAt = &expiresAt
	return u
}
