package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserStore mocks the UserStore interface.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) ListMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Membership), args.Error(1)
}

func (m *MockUserStore) SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	args := m.Called(ctx, userID, tenantID)
	return args.Error(0)
}

const testPassword = "correct horse battery staple"

func newTestUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: uuid.New(), Email: "ana@acme.test", PasswordHash: string(hash)}
}

func testMemberships() []domain.Membership {
	return []domain.Membership{
		{TenantID: uuid.New(), TenantSubdomain: "dormant", TenantName: "Dormant", TenantStatus: domain.TenantStatusInactive, Role: domain.RoleOwner},
		{TenantID: uuid.New(), TenantSubdomain: "acme", TenantName: "Acme", TenantStatus: domain.TenantStatusActive, Role: domain.RoleAdmin},
		{TenantID: uuid.New(), TenantSubdomain: "globex", TenantName: "Globex", TenantStatus: domain.TenantStatusTrial, Role: domain.RoleViewer},
	}
}

func TestAuthService_LoginOnSubdomain(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)
	memberships := testMemberships()

	users := new(MockUserStore)
	users.On("GetByEmail", ctx, "ana@acme.test").Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(memberships, nil)
	users.On("SetCurrentTenant", ctx, user.ID, memberships[2].TenantID).Return(nil)

	svc := NewAuthService(users, zap.NewNop())
	sess, err := svc.Login(ctx, "  Ana@Acme.test ", testPassword, "globex")

	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
	assert.Equal(t, "globex", sess.Tenant.Subdomain)
	assert.Equal(t, domain.RoleViewer, sess.Role)
	assert.Len(t, sess.Memberships, 3)
	users.AssertExpectations(t)
}

func TestAuthService_LoginOnForeignSubdomain(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)

	users := new(MockUserStore)
	users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(testMemberships(), nil)

	_, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, testPassword, "initech")
	assert.ErrorIs(t, err, ErrTenantAccessDenied)
	users.AssertNotCalled(t, "SetCurrentTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginUsesCurrentTenant(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)
	memberships := testMemberships()
	user.CurrentTenantID = &memberships[2].TenantID

	users := new(MockUserStore)
	users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(memberships, nil)

	sess, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, testPassword, "")
	require.NoError(t, err)
	assert.Equal(t, "globex", sess.Tenant.Subdomain)
	users.AssertNotCalled(t, "SetCurrentTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginSkipsInactiveDefault(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)
	memberships := testMemberships()

	users := new(MockUserStore)
	users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(memberships, nil)
	users.On("SetCurrentTenant", ctx, user.ID, memberships[1].TenantID).Return(errors.New("db down"))

	sess, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, testPassword, "")
	require.NoError(t, err, "pointer update failures do not block login")
	assert.Equal(t, "acme", sess.Tenant.Subdomain)
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("GetByEmail", ctx, "nobody@acme.test").Return(nil, store.ErrNotFound)
		_, err := NewAuthService(users, zap.NewNop()).Login(ctx, "nobody@acme.test", testPassword, "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		_, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, "wrong", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		users.AssertNotCalled(t, "ListMemberships", mock.Anything, mock.Anything)
	})

	t.Run("empty password", func(t *testing.T) {
		users := new(MockUserStore)
		_, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("no memberships", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		users.On("ListMemberships", ctx, user.ID).Return([]domain.Membership{}, nil)
		_, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, testPassword, "")
		assert.ErrorIs(t, err, ErrNoMemberships)
	})

	t.Run("store error", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("GetByEmail", ctx, user.Email).Return(nil, errors.New("connection reset"))
		_, err := NewAuthService(users, zap.NewNop()).Login(ctx, user.Email, testPassword, "")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_SwitchTenant(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)
	memberships := testMemberships()

	users := new(MockUserStore)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(memberships, nil)
	users.On("SetCurrentTenant", ctx, user.ID, memberships[1].TenantID).Return(nil)

	sess, err := NewAuthService(users, zap.NewNop()).SwitchTenant(ctx, user.ID, memberships[1].TenantID)
	require.NoError(t, err)
	assert.Equal(t, "acme", sess.Tenant.Subdomain)
	assert.Equal(t, domain.RoleAdmin, sess.Role)
	users.AssertExpectations(t)
}

func TestAuthService_SwitchTenantRejectsNonMember(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t)

	users := new(MockUserStore)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("ListMemberships", ctx, user.ID).Return(testMemberships(), nil)

	_, err := NewAuthService(users, zap.NewNop()).SwitchTenant(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTenantAccessDenied)
	users.AssertNotCalled(t, "SetCurrentTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_SwitchTenantUnknownUser(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	users := new(MockUserStore)
	users.On("GetByID", ctx, id).Return(nil, store.ErrNotFound)

	_, err := NewAuthService(users, zap.NewNop()).SwitchTenant(ctx, id, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
