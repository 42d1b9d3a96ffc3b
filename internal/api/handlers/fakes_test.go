package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type fakeUsers struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	memberships map[uuid.UUID][]domain.Membership
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*domain.User{}, memberships: map[uuid.UUID][]domain.Membership{}}
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) ListMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberships[userID], nil
}

func (f *fakeUsers) SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.CurrentTenantID = &tenantID
	return nil
}

type fakeTenants struct {
	tenants map[uuid.UUID]*domain.Tenant
}

func (f *fakeTenants) Create(ctx context.Context, t *domain.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeTenants) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeTenants) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	for _, t := range f.tenants {
		if t.Subdomain == subdomain {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeTenants) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) (*domain.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return t, nil
}

type fakeInvalidator struct {
	evicted []string
	err     error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, subdomain string) error {
	f.evicted = append(f.evicted, subdomain)
	return f.err
}

type credentialKey struct {
	tenantID uuid.UUID
	provider domain.Provider
}

type fakeCredentials struct {
	rows map[credentialKey]domain.Credential
	err  error
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{rows: map[credentialKey]domain.Credential{}}
}

func (f *fakeCredentials) Upsert(ctx context.Context, c *domain.Credential) error {
	if f.err != nil {
		return f.err
	}
	c.UpdatedAt = time.Now()
	f.rows[credentialKey{c.TenantID, c.Provider}] = *c
	return nil
}

func (f *fakeCredentials) Get(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (*domain.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[credentialKey{tenantID, provider}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCredentials) Delete(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) error {
	if f.err != nil {
		return f.err
	}
	k := credentialKey{tenantID, provider}
	if _, ok := f.rows[k]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, k)
	return nil
}

var errDatabaseDown = errors.New("database down")

// serve routes req through a chi router carrying pattern, with scope attached
// the way the gateway would.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request, scope *gateway.Scope) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	if scope != nil {
		req = req.WithContext(gateway.WithScope(req.Context(), *scope))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
