package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CredentialStore struct {
	db *pgxpool.Pool
}

func NewCredentialStore(db *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Upsert(ctx context.Context, c *domain.Credential) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO tenant_credentials (tenant_id, provider, access_token, account_uri)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tenant_id, provider)
		 DO UPDATE SET access_token = EXCLUDED.access_token,
		               account_uri = EXCLUDED.account_uri,
		               updated_at = NOW()
		 RETURNING updated_at`,
		c.TenantID, c.Provider, c.EncryptedToken, c.EncryptedAccountURI,
	).Scan(&c.UpdatedAt)
}

func (s *CredentialStore) Get(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) (*domain.Credential, error) {
	c := &domain.Credential{}
	err := s.db.QueryRow(ctx,
		`SELECT tenant_id, provider, access_token, account_uri, updated_at
		 FROM tenant_credentials WHERE tenant_id = $1 AND provider = $2`,
		tenantID, provider,
	).Scan(&c.TenantID, &c.Provider, &c.EncryptedToken, &c.EncryptedAccountURI, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CredentialStore) Delete(ctx context.Context, tenantID uuid.UUID, provider domain.Provider) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM tenant_credentials WHERE tenant_id = $1 AND provider = $2`,
		tenantID, provider,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
