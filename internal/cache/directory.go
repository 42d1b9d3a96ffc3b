// Package cache puts a short-lived cache in front of the tenant directory.
//
// Only hits are cached. Any change to a tenant's status must call
// Invalidate so suspensions take effect on the next request.
package cache

import (
	"context"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Second

type Directory struct {
	store  domain.TenantStore
	cache  domain.TenantCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewDirectory(store domain.TenantStore, cache domain.TenantCache, ttl time.Duration, logger *zap.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{store: store, cache: cache, ttl: ttl, logger: logger}
}

// GetBySubdomain serves from the cache when possible. Cache failures fall
// through to the store. The generation is read before the store so an
// Invalidate that lands while the row is in flight keeps it out of the cache.
func (d *Directory) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	if t, ok, err := d.cache.Get(ctx, subdomain); err != nil {
		d.logger.Warn("tenant cache read failed", zap.String("subdomain", subdomain), zap.Error(err))
	} else if ok {
		return t, nil
	}

	gen, genErr := d.cache.Generation(ctx, subdomain)
	if genErr != nil {
		d.logger.Warn("tenant cache generation read failed", zap.String("subdomain", subdomain), zap.Error(genErr))
	}

	t, err := d.store.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return t, nil
	}

	stored, err := d.cache.Set(ctx, t, gen, d.ttl)
	switch {
	case err != nil:
		d.logger.Warn("tenant cache write failed", zap.String("subdomain", subdomain), zap.Error(err))
	case !stored:
		d.logger.Debug("tenant invalidated during lookup, not cached", zap.String("subdomain", subdomain))
	}
	return t, nil
}

func (d *Directory) Invalidate(ctx context.Context, subdomain string) error {
	return d.cache.Invalidate(ctx, subdomain)
}
