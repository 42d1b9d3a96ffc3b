package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantStore struct {
	db *pgxpool.Pool
}

func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

const tenantColumns = `id, subdomain, name, status, owner_id, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(&t.ID, &t.Subdomain, &t.Name, &t.Status, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	if t.Status == "" {
		t.Status = domain.TenantStatusTrial
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenants (subdomain, name, status, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.Subdomain, t.Name, t.Status, t.OwnerID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

// GetBySubdomain matches the subdomain exactly; lookups are case-sensitive.
func (s *TenantStore) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	return scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain))
}

func (s *TenantStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) (*domain.Tenant, error) {
	return scanTenant(s.db.QueryRow(ctx,
		`UPDATE tenants SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+tenantColumns, id, status))
}
