// Package cache memoizes dashboard snapshots in Redis. A nil client turns every
// call into a miss so the service falls back to recomputing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/loan-manager/pkg/errors"
)

const keyPrefix = "loans:dashboard"

type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

// Key builds the cache key of one dashboard view of an owner.
func Key(ownerID uuid.UUID, view string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, ownerID, view)
}

func indexKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:keys", keyPrefix, ownerID)
}

// Get decodes the cached view into dest. It reports false on a miss.
func (c *DashboardCache) Get(ctx context.Context, ownerID uuid.UUID, view string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	raw, err := c.client.Get(ctx, Key(ownerID, view)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, customError.WrapCacheError(fmt.Errorf("failed to read %s: %w", view, err))
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", view, err)
	}
	return true, nil
}

// Set stores value and records its key so Invalidate can find it.
func (c *DashboardCache) Set(ctx context.Context, ownerID uuid.UUID, view string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", view, err)
	}

	key := Key(ownerID, view)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, indexKey(ownerID), key)
	pipe.Expire(ctx, indexKey(ownerID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return customError.WrapCacheError(fmt.Errorf("failed to write %s: %w", view, err))
	}
	return nil
}

// Invalidate drops every cached view of an owner.
func (c *DashboardCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	index := indexKey(ownerID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return customError.WrapCacheError(fmt.Errorf("failed to list cached views: %w", err))
	}

	keys = append(keys, index)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return customError.WrapCacheError(fmt.Errorf("failed to invalidate dashboard: %w", err))
	}
	return nil
}

// Ping checks the Redis connection. A disabled cache is always healthy.
func (c *DashboardCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Enabled reports whether a Redis client is configured.
func (c *DashboardCache) Enabled() bool {
	return c != nil && c.client != nil
}
