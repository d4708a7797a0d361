package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/redis"
)

// Store is the slice of the redis client the profile cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ProfileKey(userID string) string
}

// Cache holds profile snapshots under a per-user key with a fixed TTL.
// Writers invalidate, never update in place: an in-place update could
// persist a snapshot computed before a concurrent mutation landed.
type Cache struct {
	store Store
	ttl   time.Duration
}

// NewCache returns a profile snapshot cache. A nil store yields a cache
// that always misses, which keeps the read path working without redis.
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Get returns the cached snapshot, or (nil, nil) on a miss. Transport
// failures surface as errors so the caller can degrade to a direct read.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if c.store == nil {
		return nil, nil
	}
	raw, err := c.store.Get(ctx, c.store.ProfileKey(userID.String()))
	if err != nil {
		if redis.IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		// A snapshot that no longer parses is as good as absent.
		return nil, nil
	}
	return &snapshot, nil
}

// Set stores the snapshot for the configured TTL.
func (c *Cache) Set(ctx context.Context, userID uuid.UUID, snapshot *Snapshot) error {
	if c.store == nil || snapshot == nil {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.store.ProfileKey(userID.String()), string(raw), c.ttl)
}

// Invalidate drops the snapshot. Every balance or points mutation calls this
// before its result is returned to the caller.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c.store == nil {
		return nil
	}
	return c.store.Del(ctx, c.store.ProfileKey(userID.String()))
}
