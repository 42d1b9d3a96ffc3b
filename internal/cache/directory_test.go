package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]domain.Tenant
	gens    map[string]int64
	failGet error
	failSet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]domain.Tenant), gens: make(map[string]int64)}
}

func (c *memoryCache) Get(ctx context.Context, subdomain string) (*domain.Tenant, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	t, ok := c.entries[subdomain]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

func (c *memoryCache) Generation(ctx context.Context, subdomain string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[subdomain], nil
}

func (c *memoryCache) Set(ctx context.Context, t *domain.Tenant, generation int64, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet != nil {
		return false, c.failSet
	}
	if c.gens[t.Subdomain] != generation {
		return false, nil
	}
	c.entries[t.Subdomain] = *t
	return true, nil
}

func (c *memoryCache) Invalidate(ctx context.Context, subdomain string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[subdomain]++
	delete(c.entries, subdomain)
	return nil
}

type countingStore struct {
	tenants map[string]*domain.Tenant
	lookups int
}

func (s *countingStore) Create(ctx context.Context, t *domain.Tenant) error { return nil }

func (s *countingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	for _, t := range s.tenants {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *countingStore) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	s.lookups++
	t, ok := s.tenants[subdomain]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *countingStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) (*domain.Tenant, error) {
	for _, t := range s.tenants {
		if t.ID == id {
			t.Status = status
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func newTestDirectory() (*Directory, *countingStore, *memoryCache) {
	st := &countingStore{tenants: map[string]*domain.Tenant{
		"acme": {ID: uuid.New(), Subdomain: "acme", Name: "Acme", Status: domain.TenantStatusActive},
	}}
	mc := newMemoryCache()
	return NewDirectory(st, mc, time.Minute, zap.NewNop()), st, mc
}

func TestDirectory_CachesHits(t *testing.T) {
	d, st, _ := newTestDirectory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tenant, err := d.GetBySubdomain(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", tenant.Name)
	}
	assert.Equal(t, 1, st.lookups)
}

func TestDirectory_DoesNotCacheMisses(t *testing.T) {
	d, st, _ := newTestDirectory()
	ctx := context.Background()

	_, err := d.GetBySubdomain(ctx, "newco")
	assert.ErrorIs(t, err, store.ErrNotFound)

	st.tenants["newco"] = &domain.Tenant{ID: uuid.New(), Subdomain: "newco", Status: domain.TenantStatusTrial}
	tenant, err := d.GetBySubdomain(ctx, "newco")
	require.NoError(t, err)
	assert.Equal(t, "newco", tenant.Subdomain)
	assert.Equal(t, 2, st.lookups)
}

func TestDirectory_InvalidateServesFreshStatus(t *testing.T) {
	d, st, _ := newTestDirectory()
	ctx := context.Background()

	tenant, err := d.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)

	_, err = st.UpdateStatus(ctx, tenant.ID, domain.TenantStatusInactive)
	require.NoError(t, err)

	stale, err := d.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusActive, stale.Status, "cached entry is served until invalidated")

	require.NoError(t, d.Invalidate(ctx, "acme"))

	fresh, err := d.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusInactive, fresh.Status)
}

func TestDirectory_CacheFailuresFallThrough(t *testing.T) {
	d, st, mc := newTestDirectory()
	mc.failGet = errors.New("redis down")
	mc.failSet = errors.New("redis down")

	tenant, err := d.GetBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.Subdomain)

	_, err = d.GetBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, st.lookups)
}

// pausingStore holds GetBySubdomain after the row is read until released.
type pausingStore struct {
	*countingStore
	read    chan struct{}
	release chan struct{}
}

func (s *pausingStore) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	t, err := s.countingStore.GetBySubdomain(ctx, subdomain)
	s.read <- struct{}{}
	<-s.release
	return t, err
}

func TestDirectory_InvalidateDuringLookupKeepsOldRowOut(t *testing.T) {
	st := &countingStore{tenants: map[string]*domain.Tenant{
		"acme": {ID: uuid.New(), Subdomain: "acme", Name: "Acme", Status: domain.TenantStatusActive},
	}}
	ps := &pausingStore{countingStore: st, read: make(chan struct{}), release: make(chan struct{})}
	mc := newMemoryCache()
	d := NewDirectory(ps, mc, time.Minute, zap.NewNop())
	ctx := context.Background()

	done := make(chan *domain.Tenant, 1)
	go func() {
		tenant, err := d.GetBySubdomain(ctx, "acme")
		assert.NoError(t, err)
		done <- tenant
	}()

	<-ps.read
	_, err := st.UpdateStatus(ctx, st.tenants["acme"].ID, domain.TenantStatusInactive)
	require.NoError(t, err)
	require.NoError(t, d.Invalidate(ctx, "acme"))
	close(ps.release)

	inflight := <-done
	assert.Equal(t, domain.TenantStatusActive, inflight.Status, "the in-flight lookup returns what it read")

	_, ok, err := mc.Get(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, ok, "the pre-suspension row must not be cached")

	go func() { <-ps.read }()
	fresh, err := d.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusInactive, fresh.Status)
}
