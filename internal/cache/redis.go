package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	tenantKeyPrefix     = "tg:tenant:subdomain:"
	generationKeyPrefix = "tg:tenant:generation:"
	opTimeout           = 2 * time.Second
)

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[2].
// A missing generation key counts as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if not gen then gen = "0" end
if gen ~= ARGV[2] then return 0 end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// RedisTenantCache stores tenants as JSON under their subdomain.
type RedisTenantCache struct {
	rdb *redis.Client
}

// NewRedisTenantCache connects to redisURL and verifies the connection.
func NewRedisTenantCache(ctx context.Context, redisURL string) (*RedisTenantCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisTenantCache{rdb: rdb}, nil
}

func tenantKey(subdomain string) string {
	return tenantKeyPrefix + subdomain
}

func generationKey(subdomain string) string {
	return generationKeyPrefix + subdomain
}

func (c *RedisTenantCache) Get(ctx context.Context, subdomain string) (*domain.Tenant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, tenantKey(subdomain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("decode cached tenant: %w", err)
	}
	return &t, true, nil
}

func (c *RedisTenantCache) Generation(ctx context.Context, subdomain string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	gen, err := c.rdb.Get(ctx, generationKey(subdomain)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisTenantCache) Set(ctx context.Context, t *domain.Tenant, generation int64, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return false, err
	}
	n, err := setIfGeneration.Run(ctx, c.rdb,
		[]string{tenantKey(t.Subdomain), generationKey(t.Subdomain)},
		string(raw), strconv.FormatInt(generation, 10), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the entry and advances the generation in one transaction.
func (c *RedisTenantCache) Invalidate(ctx context.Context, subdomain string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(subdomain))
		pipe.Del(ctx, tenantKey(subdomain))
		return nil
	})
	return err
}

func (c *RedisTenantCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisTenantCache) Close() error {
	return c.rdb.Close()
}
