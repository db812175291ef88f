package health_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/health"
	tmocks "github.com/mrgetwhateverdone/brandbuddy-production-sub000/test/mocks"
)

func TestInsightCacheHealthChecker(t *testing.T) {
	cache := &tmocks.InsightCacheMock{}
	hc := health.NewInsightCacheHealthChecker(cache)
	require.Equal(t, "insight_cache", hc.Name())
	advisory, ok := hc.(ports.AdvisoryHealthChecker)
	require.True(t, ok)
	require.True(t, advisory.Advisory())
	require.NoError(t, hc.Check(context.Background()))

	cache.HealthFn = func() ports.CacheHealth {
		return ports.CacheHealth{Healthy: false, Issues: []string{"cache size large", "low hit rate"}}
	}
	err := hc.Check(context.Background())
	require.EqualError(t, err, "cache size large; low hit rate")
}
