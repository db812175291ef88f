package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// SnapshotCache implements ports.Cache on Redis. It holds short-lived serialized dataset
// snapshots shared by every instance; the insight cache itself never leaves the process.
type SnapshotCache struct {
	r      redis.Cmdable
	prefix string
}

var _ ports.Cache = (*SnapshotCache)(nil)

func NewSnapshotCache(r redis.Cmdable, prefix string) *SnapshotCache {
	return &SnapshotCache{r: r, prefix: prefix}
}

func (c *SnapshotCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *SnapshotCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value; ttl <= 0 keeps it until deleted.
func (c *SnapshotCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.r.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *SnapshotCache) Delete(ctx context.Context, key string) error {
	return c.r.Del(ctx, c.key(key)).Err()
}
