package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/urlshortcut/urlshortcut/internal/cache"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory OwnerStore and URLStore.
type memStore struct {
	mu     sync.Mutex
	owners map[string]*model.Owner
	urls   map[string]*model.ShortURL
	visits map[string]int64
	writes int

	// beforeMutation runs before an update or delete statement.
	beforeMutation func()
	// afterGetURL runs once GetURLByID has read a row.
	afterGetURL func(id string)
}

func newMemStore() *memStore {
	return &memStore{
		owners: make(map[string]*model.Owner),
		urls:   make(map[string]*model.ShortURL),
		visits: make(map[string]int64),
	}
}

func (m *memStore) hook() {
	if m.beforeMutation != nil {
		m.beforeMutation()
	}
}

func (m *memStore) CreateOwner(_ context.Context, o *model.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.owners {
		if existing.Host == o.Host {
			return repository.ErrHostExists
		}
	}
	cp := *o
	m.owners[o.ID] = &cp
	m.writes++
	return nil
}

func (m *memStore) GetOwnerByID(_ context.Context, id string) (*model.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	if !ok {
		return nil, repository.ErrOwnerNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetOwnerByHost(_ context.Context, host string) (*model.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.owners {
		if o.Host == host {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOwnerNotFound
}

func (m *memStore) UpdateOwnerPassword(_ context.Context, id, hash string) (int64, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	if !ok {
		return 0, nil
	}
	o.PasswordHash = hash
	m.writes++
	return 1, nil
}

func (m *memStore) DeleteOwner(_ context.Context, id string) (int64, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[id]; !ok {
		return 0, nil
	}
	delete(m.owners, id)
	for uid, u := range m.urls {
		if u.OwnerID == id {
			delete(m.urls, uid)
		}
	}
	m.writes++
	return 1, nil
}

func (m *memStore) CreateURL(_ context.Context, u *model.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[u.OwnerID]; !ok {
		return repository.ErrOwnerMissing
	}
	cp := *u
	m.urls[u.ID] = &cp
	m.writes++
	return nil
}

func (m *memStore) GetURLByID(_ context.Context, id string) (*model.ShortURL, error) {
	m.mu.Lock()
	u, ok := m.urls[id]
	if !ok {
		m.mu.Unlock()
		return nil, repository.ErrURLNotFound
	}
	cp := *u
	m.mu.Unlock()

	if m.afterGetURL != nil {
		m.afterGetURL(id)
	}
	return &cp, nil
}

func (m *memStore) ListURLsByOwner(_ context.Context, ownerID string) ([]*model.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ShortURL, 0)
	for _, u := range m.urls {
		if u.OwnerID == ownerID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteURL(_ context.Context, id string) (int64, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.urls[id]; !ok {
		return 0, nil
	}
	delete(m.urls, id)
	m.writes++
	return 1, nil
}

func (m *memStore) CountVisits(_ context.Context, urlID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visits[urlID], nil
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// plainHasher keeps tests fast; it is not a real hash.
type plainHasher struct {
	mu          sync.Mutex
	dummyCalls  int
	verifyCalls int
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(password, encoded string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	return strings.TrimPrefix(encoded, "plain$") == password, nil
}

func (h *plainHasher) VerifyDummy(password string) {
	h.mu.Lock()
	h.dummyCalls++
	h.mu.Unlock()
}

// memCache is an in-memory URLCache.
type memCache struct {
	mu       sync.Mutex
	entries  map[string]*model.ShortURL
	negative map[string]bool
}

func newMemCache() *memCache {
	return &memCache{
		entries:  make(map[string]*model.ShortURL),
		negative: make(map[string]bool),
	}
}

func (c *memCache) GetURL(_ context.Context, id string) (*model.ShortURL, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *u
	return &cp, nil
}

func (c *memCache) SetURL(_ context.Context, u *model.ShortURL) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.negative[u.ID] {
		return nil
	}
	cp := *u
	c.entries[u.ID] = &cp
	return nil
}

func (c *memCache) DeleteURL(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
		c.negative[id] = true
	}
	return nil
}

func (c *memCache) IsNegativelyCached(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

func (c *memCache) SetNegativeCache(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[id] = true
	return nil
}

func (c *memCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

type recordedVisit struct {
	urlID string
	at    time.Time
}

type visitSpy struct {
	mu     sync.Mutex
	visits []recordedVisit
}

func (v *visitSpy) RecordVisit(urlID string, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visits = append(v.visits, recordedVisit{urlID, at})
}

func (v *visitSpy) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.visits)
}
