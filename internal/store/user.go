package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, current_tenant_id, created_at, updated_at
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CurrentTenantID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByEmail matches case-insensitively; emails are stored lowercased.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email = lower($1)", email)
}

func (s *UserStore) ListMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.subdomain, t.name, t.status, m.role
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.user_id = $1
		 ORDER BY m.created_at, t.subdomain`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.TenantID, &m.TenantSubdomain, &m.TenantName, &m.TenantStatus, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// SetCurrentTenant moves the user's default tenant pointer. Concurrent
// switches are last-writer-wins.
func (s *UserStore) SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET current_tenant_id = $2, updated_at = NOW() WHERE id = $1`,
		userID, tenantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
