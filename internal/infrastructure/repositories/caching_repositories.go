package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		// undecodable snapshots would otherwise be re-read until they expire
		_ = c.Delete(ctx, key)
		return nil, false
	}
	return &v, true
}

// CachingDatasetRepository decorates a DatasetRepository with a short-lived shared snapshot.
// Concurrent misses for the same snapshot key are coalesced into one upstream fetch.
type CachingDatasetRepository struct {
	inner  ports.DatasetRepository
	cache  ports.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Logger
}

var _ ports.DatasetRepository = (*CachingDatasetRepository)(nil)

func NewCachingDatasetRepository(inner ports.DatasetRepository, cache ports.Cache, ttl time.Duration, logger *logrus.Logger) *CachingDatasetRepository {
	return &CachingDatasetRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// SnapshotKey identifies one cached dataset. The namespace is left out: pages that need the
// same projection of the same brand share a snapshot.
func SnapshotKey(q logistics.DatasetQuery) string {
	brand := strings.ToLower(strings.TrimSpace(q.Filter.Brand))
	if brand == "" {
		brand = "_all"
	}
	projection := q.Projection
	if projection == "" {
		projection = logistics.ProjectionFull
	}
	return fmt.Sprintf("%s:%s", projection, brand)
}

func (c *CachingDatasetRepository) FetchDataset(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
	key := SnapshotKey(q)
	if v, ok := cacheGet[logistics.Dataset](c.cache, ctx, key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := cacheGet[logistics.Dataset](c.cache, ctx, key); ok {
			return v, nil
		}
		ds, err := c.inner.FetchDataset(ctx, q)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(c.cache, ctx, key, ds, c.ttl)
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"key":       key,
				"products":  len(ds.Products),
				"shipments": len(ds.Shipments),
			}).Debug("dataset snapshot refreshed")
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	ds, ok := res.(*logistics.Dataset)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return ds, nil
}
