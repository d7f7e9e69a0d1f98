package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"admingate/internal/models"
	"admingate/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	CapabilityKeyPrefix  = "admingate:capabilities:%s"
	DefaultCapabilityTTL = 5 * time.Minute
)

// CapabilityKey is the cache key of the snapshot for a credential fingerprint.
func CapabilityKey(fingerprint string) string {
	return fmt.Sprintf(CapabilityKeyPrefix, fingerprint)
}

// CapabilityCache shares current-admin snapshots between processes using the
// same credential. A nil cache or client turns every call into a miss.
type CapabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCapabilityCache wraps client. A non-positive ttl uses DefaultCapabilityTTL.
func NewCapabilityCache(client *redis.Client, ttl time.Duration) *CapabilityCache {
	if ttl <= 0 {
		ttl = DefaultCapabilityTTL
	}
	return &CapabilityCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot. A miss is (nil, false, nil).
func (c *CapabilityCache) Get(ctx context.Context, fingerprint string) (*models.CurrentAdmin, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	ctx, span := observability.TraceRedisOperation(ctx, "get")
	defer span.End()

	raw, err := c.client.Get(ctx, CapabilityKey(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read capability snapshot: %w", err)
	}

	var me models.CurrentAdmin
	if err := json.Unmarshal(raw, &me); err != nil {
		// A snapshot written by an incompatible version is just a miss.
		c.Invalidate(ctx, fingerprint)
		return nil, false, nil
	}
	return &me, true, nil
}

// Set stores the snapshot for the configured TTL.
func (c *CapabilityCache) Set(ctx context.Context, fingerprint string, me *models.CurrentAdmin) error {
	if c == nil || c.client == nil || me == nil {
		return nil
	}
	ctx, span := observability.TraceRedisOperation(ctx, "set")
	defer span.End()

	raw, err := json.Marshal(me)
	if err != nil {
		return fmt.Errorf("encode capability snapshot: %w", err)
	}
	if err := c.client.Set(ctx, CapabilityKey(fingerprint), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write capability snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot. Errors are logged, not returned.
func (c *CapabilityCache) Invalidate(ctx context.Context, fingerprint string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, CapabilityKey(fingerprint)).Err(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "capability cache invalidate failed", "error", err)
	}
}
