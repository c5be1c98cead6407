package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/model"
)

type urlEnv struct {
	*ownerEnv
	visits *visitSpy
	svc    *URLService
}

func newURLEnv(t *testing.T, now time.Time) *urlEnv {
	t.Helper()
	owners := newOwnerEnv(t)
	visits := &visitSpy{}
	svc := NewURLService(owners.store, owners.store, owners.cache, visits, discardLogger(), owners.rec)
	svc.now = func() time.Time { return now }
	return &urlEnv{ownerEnv: owners, visits: visits, svc: svc}
}

func TestURLService_Create(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 4, 4, 12, 0, 0, 750_000_000, time.UTC)
	env := newURLEnv(t, now)
	owner := env.register(t, "example.com", "password1")
	desc := "landing page"

	u, err := env.svc.Create(context.Background(), "example.com", CreateURLInput{
		Target:      "https://example.com:8443/landing?x=1",
		Expiration:  90,
		Description: &desc,
	})
	require.NoError(t, err)

	assert.Equal(t, owner.ID, u.OwnerID)
	assert.Equal(t, "example.com", u.Host)
	assert.Equal(t, model.StatusRegistered, u.Status)
	assert.Equal(t, now.Truncate(time.Second), u.CreatedAt)
	require.NotNil(t, u.ExpiresAt)
	assert.Equal(t, u.CreatedAt.Add(90*time.Second), *u.ExpiresAt)
	assert.Contains(t, env.store.urls, u.ID)
}

func TestURLService_Create_NoExpiration(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")

	u, err := env.svc.Create(context.Background(), "example.com", CreateURLInput{Target: "http://example.com/"})
	require.NoError(t, err)
	assert.Nil(t, u.ExpiresAt)
}

func TestURLService_Create_ForeignHostForbiddenBeforeWrite(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")
	env.register(t, "other.com", "password1")
	writes := env.store.writeCount()

	_, err := env.svc.Create(context.Background(), "example.com", CreateURLInput{Target: "https://other.com/x"})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, writes, env.store.writeCount())
	assert.Empty(t, env.store.urls)
}

func TestURLService_Create_Invalid(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")

	tests := []struct {
		name    string
		input   CreateURLInput
		wantErr error
	}{
		{"not a url", CreateURLInput{Target: "::nope"}, ErrInvalidURL},
		{"relative", CreateURLInput{Target: "/just/a/path"}, ErrInvalidURL},
		{"ftp scheme", CreateURLInput{Target: "ftp://example.com/file"}, ErrInvalidURL},
		{"no host", CreateURLInput{Target: "https://"}, ErrInvalidURL},
		{"negative expiration", CreateURLInput{Target: "https://example.com", Expiration: -1}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), "example.com", tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestURLService_Create_OwnerGone(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())

	// Token still valid but the server was deleted.
	_, err := env.svc.Create(context.Background(), "example.com", CreateURLInput{Target: "https://example.com"})
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func seedURL(t *testing.T, env *urlEnv, host string, expiresAt *time.Time) *model.ShortURL {
	t.Helper()
	owner, err := env.store.GetOwnerByHost(context.Background(), host)
	require.NoError(t, err)
	u := &model.ShortURL{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Host:      host,
		Target:    "https://" + host + "/page",
		Status:    model.StatusRegistered,
		ExpiresAt: expiresAt,
	}
	env.store.urls[u.ID] = u
	return u
}

func TestURLService_Get(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")
	env.register(t, "other.com", "password1")
	mine := seedURL(t, env, "example.com", nil)
	theirs := seedURL(t, env, "other.com", nil)
	env.store.visits[mine.ID] = 7

	details, err := env.svc.Get(context.Background(), "example.com", mine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), details.Visits)

	_, err = env.svc.Get(context.Background(), "example.com", theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Get(context.Background(), "example.com", "bogus")
	assert.ErrorIs(t, err, ErrURLNotFound)
}

func TestURLService_Get_UsesStoredOwner(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")
	u := seedURL(t, env, "example.com", nil)
	// The guard must use the stored host, never one re-derived from the target.
	env.store.urls[u.ID].Target = "https://other.com/moved"

	_, err := env.svc.Get(context.Background(), "example.com", u.ID)
	assert.NoError(t, err)
	_, err = env.svc.Get(context.Background(), "other.com", u.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestURLService_Delete(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	ctx := context.Background()
	env.register(t, "example.com", "password1")
	env.register(t, "other.com", "password1")
	mine := seedURL(t, env, "example.com", nil)
	theirs := seedURL(t, env, "other.com", nil)
	require.NoError(t, env.cache.SetURL(ctx, mine))

	assert.ErrorIs(t, env.svc.Delete(ctx, "example.com", theirs.ID), ErrForbidden)
	assert.Contains(t, env.store.urls, theirs.ID)

	require.NoError(t, env.svc.Delete(ctx, "example.com", mine.ID))
	assert.NotContains(t, env.store.urls, mine.ID)
	assert.False(t, env.cache.has(mine.ID))
	negative, _ := env.cache.IsNegativelyCached(ctx, mine.ID)
	assert.True(t, negative, "delete leaves a tombstone")
	assert.Equal(t, uint64(1), env.rec.Snapshot().URLsDeleted)

	assert.ErrorIs(t, env.svc.Delete(ctx, "example.com", mine.ID), ErrURLNotFound)
}

func TestURLService_Delete_RaceSurfacesNotFound(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")
	u := seedURL(t, env, "example.com", nil)
	env.store.beforeMutation = func() {
		env.store.mu.Lock()
		delete(env.store.urls, u.ID)
		env.store.mu.Unlock()
	}

	err := env.svc.Delete(context.Background(), "example.com", u.ID)
	assert.ErrorIs(t, err, ErrURLNotFound)
}

func TestURLService_Resolve_DeleteDuringBackfillStaysDeleted(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	ctx := context.Background()
	env.register(t, "example.com", "password1")
	u := seedURL(t, env, "example.com", nil)

	// Delete lands after Resolve read the row but before it backfills.
	deleted := false
	env.store.afterGetURL = func(id string) {
		if deleted {
			return
		}
		deleted = true
		require.NoError(t, env.svc.Delete(ctx, "example.com", id))
	}

	_, err := env.svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, env.cache.has(u.ID), "a deleted url must not be re-cached")

	_, err = env.svc.Resolve(ctx, u.ID)
	assert.ErrorIs(t, err, ErrURLNotFound)
}

func TestURLService_Resolve_OwnerDeleteDuringBackfillStaysDeleted(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	ctx := context.Background()
	owner := env.register(t, "example.com", "password1")
	u := seedURL(t, env, "example.com", nil)

	deleted := false
	env.store.afterGetURL = func(string) {
		if deleted {
			return
		}
		deleted = true
		require.NoError(t, env.ownerEnv.svc.Delete(ctx, "example.com", owner.ID))
	}

	_, err := env.svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, env.cache.has(u.ID), "cascaded urls must not be re-cached")

	_, err = env.svc.Resolve(ctx, u.ID)
	assert.ErrorIs(t, err, ErrURLNotFound)
}

func TestURLService_Resolve(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 4, 4, 12, 0, 0, 0, time.UTC)
	env := newURLEnv(t, now)
	ctx := context.Background()
	env.register(t, "example.com", "password1")

	past := now.Add(-time.Second)
	exact := now
	live := seedURL(t, env, "example.com", nil)
	expired := seedURL(t, env, "example.com", &past)
	boundary := seedURL(t, env, "example.com", &exact)

	got, err := env.svc.Resolve(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.Target, got.Target)
	assert.True(t, env.cache.has(live.ID), "miss should backfill the cache")

	// Second lookup is served from cache.
	_, err = env.svc.Resolve(ctx, live.ID)
	require.NoError(t, err)
	snap := env.rec.Snapshot()
	assert.Equal(t, uint64(1), snap.RedirectCacheHits)
	assert.Equal(t, uint64(1), snap.RedirectCacheMisses)

	_, err = env.svc.Resolve(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrURLExpired)

	_, err = env.svc.Resolve(ctx, boundary.ID)
	assert.NoError(t, err, "expiry equal to now still redirects")

	assert.Equal(t, 3, env.visits.count(), "only successful redirects are recorded")
}

func TestURLService_Resolve_NotFound(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	ctx := context.Background()
	id := uuid.NewString()

	_, err := env.svc.Resolve(ctx, id)
	assert.ErrorIs(t, err, ErrURLNotFound)

	negative, _ := env.cache.IsNegativelyCached(ctx, id)
	assert.True(t, negative)

	_, err = env.svc.Resolve(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrURLNotFound)
	negative, _ = env.cache.IsNegativelyCached(ctx, "not-a-uuid")
	assert.False(t, negative, "malformed ids never reach the cache")
	assert.Zero(t, env.visits.count())
}

type brokenCache struct{ *memCache }

func (brokenCache) GetURL(context.Context, string) (*model.ShortURL, error) {
	return nil, errors.New("redis down")
}

func TestURLService_Resolve_CacheFailureFallsBackToStore(t *testing.T) {
	t.Parallel()
	env := newURLEnv(t, time.Now())
	env.register(t, "example.com", "password1")
	u := seedURL(t, env, "example.com", nil)

	svc := NewURLService(env.store, env.store, brokenCache{newMemCache()}, nil, discardLogger(), metrics.NewNoop())
	got, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Target, got.Target)
}
