package health

import (
	"context"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	infraDB "github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/db"
)

// dbHealthChecker probes the analytical datastore.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

type redisHealthChecker struct{ client redis.UniversalClient }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// insightCacheChecker surfaces the cache policy issues as warnings only.
type insightCacheChecker struct{ cache ports.InsightCache }

func (i *insightCacheChecker) Name() string   { return "insight_cache" }
func (i *insightCacheChecker) Advisory() bool { return true }
func (i *insightCacheChecker) Check(_ context.Context) error {
	h := i.cache.Health()
	if h.Healthy {
		return nil
	}
	return errors.New(strings.Join(h.Issues, "; "))
}

func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

func NewRedisHealthChecker(client redis.UniversalClient) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewInsightCacheHealthChecker creates a health checker over the insight cache health rules.
func NewInsightCacheHealthChecker(cache ports.InsightCache) ports.HealthChecker {
	return &insightCacheChecker{cache: cache}
}
