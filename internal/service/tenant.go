package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrInvalidStatus      = errors.New("invalid tenant status")
	ErrInvalidationFailed = errors.New("tenant cache invalidation failed")
)

// TenantInvalidator drops cached directory entries.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, subdomain string) error
}

type TenantService struct {
	store       domain.TenantStore
	invalidator TenantInvalidator
	logger      *zap.Logger
}

// NewTenantService builds the service. invalidator may be nil when the
// directory is not cached.
func NewTenantService(s domain.TenantStore, invalidator TenantInvalidator, logger *zap.Logger) *TenantService {
	return &TenantService{store: s, invalidator: invalidator, logger: logger}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

// SetStatus changes a tenant's status and evicts its cached directory entry.
// When eviction fails the new status is already stored, and the error is
// reported so the caller knows the old status may be served until the entry
// expires.
func (s *TenantService) SetStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) (*domain.Tenant, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	t, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	s.logger.Info("tenant status changed",
		zap.String("tenant_id", t.ID.String()),
		zap.String("subdomain", t.Subdomain),
		zap.String("status", string(t.Status)),
	)

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, t.Subdomain); err != nil {
			s.logger.Error("failed to invalidate tenant cache",
				zap.String("subdomain", t.Subdomain), zap.Error(err))
			return t, fmt.Errorf("%w: %v", ErrInvalidationFailed, err)
		}
	}
	return t, nil
}
