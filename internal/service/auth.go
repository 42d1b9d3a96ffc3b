package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/session"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoMemberships      = errors.New("user does not belong to any workspace")
	ErrTenantAccessDenied = errors.New("access denied to the specified workspace")
	ErrUserNotFound       = errors.New("user not found")
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work for unknown emails as for known
// ones so response time does not reveal which accounts exist.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("tenantgate-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

type AuthService struct {
	users  domain.UserStore
	logger *zap.Logger
}

func NewAuthService(users domain.UserStore, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, logger: logger}
}

// Login verifies the password and binds the new session to a tenant. When
// subdomain is set the user must be a member of that workspace; otherwise the
// user's current tenant is used, then the first workspace still being served.
func (s *AuthService) Login(ctx context.Context, email, password, subdomain string) (*session.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	memberships, err := s.users.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrNoMemberships
	}

	tenantID, err := chooseTenant(user, memberships, subdomain)
	if err != nil {
		return nil, err
	}

	if user.CurrentTenantID == nil || *user.CurrentTenantID != tenantID {
		if err := s.users.SetCurrentTenant(ctx, user.ID, tenantID); err != nil {
			// The pointer is only a UX default; the session carries the binding.
			s.logger.Warn("failed to update current tenant",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	return session.New(user, memberships, tenantID)
}

// SwitchTenant rebinds the user to tenantID. Membership is re-read from the
// store rather than trusted from the caller's session.
func (s *AuthService) SwitchTenant(ctx context.Context, userID, tenantID uuid.UUID) (*session.Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	memberships, err := s.users.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	if findMembership(memberships, func(m domain.Membership) bool { return m.TenantID == tenantID }) == nil {
		return nil, ErrTenantAccessDenied
	}

	if err := s.users.SetCurrentTenant(ctx, userID, tenantID); err != nil {
		return nil, err
	}

	return session.New(user, memberships, tenantID)
}

func chooseTenant(user *domain.User, memberships []domain.Membership, subdomain string) (uuid.UUID, error) {
	if subdomain != "" {
		m := findMembership(memberships, func(m domain.Membership) bool { return m.TenantSubdomain == subdomain })
		if m == nil {
			return uuid.Nil, ErrTenantAccessDenied
		}
		return m.TenantID, nil
	}

	if user.CurrentTenantID != nil {
		if m := findMembership(memberships, func(m domain.Membership) bool { return m.TenantID == *user.CurrentTenantID }); m != nil {
			return m.TenantID, nil
		}
	}
	if m := findMembership(memberships, func(m domain.Membership) bool { return m.TenantStatus.Serving() }); m != nil {
		return m.TenantID, nil
	}
	return memberships[0].TenantID, nil
}

func findMembership(memberships []domain.Membership, match func(domain.Membership) bool) *domain.Membership {
	for i := range memberships {
		if match(memberships[i]) {
			return &memberships[i]
		}
	}
	return nil
}
