package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status TenantStatus) (*Tenant, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error
}

type CredentialStore interface {
	Upsert(ctx context.Context, c *Credential) error
	Get(ctx context.Context, tenantID uuid.UUID, provider Provider) (*Credential, error)
	Delete(ctx context.Context, tenantID uuid.UUID, provider Provider) error
}

// TenantCache holds tenants keyed by subdomain. A miss is reported with
// ok=false and a nil error.
//
// Each Invalidate advances the subdomain's generation. Set stores t only if
// the generation still equals the one the caller read before loading t, so a
// lookup that raced a status change cannot write the old row back.
type TenantCache interface {
	Get(ctx context.Context, subdomain string) (t *Tenant, ok bool, err error)
	Generation(ctx context.Context, subdomain string) (int64, error)
	Set(ctx context.Context, t *Tenant, generation int64, ttl time.Duration) (stored bool, err error)
	Invalidate(ctx context.Context, subdomain string) error
}
