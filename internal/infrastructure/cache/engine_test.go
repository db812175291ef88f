package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEngine(clock *fakeClock, mutate ...func(*cache.Config)) *cache.Engine {
	cfg := cache.DefaultConfig()
	cfg.Clock = clock.Now
	for _, m := range mutate {
		m(&cfg)
	}
	return cache.NewEngine(cfg, nil)
}

func ordersDescriptor(atRisk int) fingerprint.Descriptor {
	return fingerprint.Descriptor{
		"brand":                   "Acme",
		"order_count":             140,
		"at_risk_order_count":     atRisk,
		"open_po_count":           9,
		"unfulfillable_sku_count": 2,
		"clock_bucket":            int64(5000),
	}
}

func artifact(titles ...string) insight.Artifact {
	a := insight.Artifact{}
	for i, title := range titles {
		a.Insights = append(a.Insights, insight.Insight{
			ID:          fmt.Sprintf("orders-insight-%d", i+1),
			Title:       title,
			Description: title + " description",
			Severity:    insight.SeverityWarning,
			Source:      "orders",
		})
	}
	return a
}

func TestEngine_HitThenMissOnDrift(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	e.Set(insight.NamespaceOrders, ordersDescriptor(12), artifact("A", "B"), 0)
	clock.Advance(60 * time.Second)

	got, ok := e.Get(insight.NamespaceOrders, ordersDescriptor(12))
	require.True(t, ok)
	require.Len(t, got.Insights, 2)
	require.Equal(t, "A", got.Insights[0].Title)
	require.Equal(t, uint64(1), e.Stats().Hits)

	_, ok = e.Get(insight.NamespaceOrders, ordersDescriptor(13))
	require.False(t, ok)
	stats := e.Stats()
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 1, stats.Size, "drifted descriptor hashes to a different key")
}

func TestEngine_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	d := fingerprint.Descriptor{"brand": "Acme", "product_count": 10, "shipment_count": 4, "clock_bucket": int64(1)}

	e.Set(insight.NamespaceDashboard, d, artifact("A"), 0)
	clock.Advance(19 * time.Minute)
	_, ok := e.Get(insight.NamespaceDashboard, d)
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = e.Get(insight.NamespaceDashboard, d)
	require.False(t, ok)
	require.Equal(t, 0, e.Stats().Size, "expired entry removed on read")
}

func TestEngine_NamespaceTTLTable(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	require.Equal(t, 15*time.Minute, e.TTL(insight.NamespaceOrders))
	require.Equal(t, 25*time.Minute, e.TTL(insight.NamespaceSLA))
	require.Equal(t, 60*time.Minute, e.TTL(insight.NamespaceReports))
	require.Equal(t, 20*time.Minute, e.TTL("unknown-insights"))

	d := ordersDescriptor(1)
	e.Set(insight.NamespaceOrders, d, artifact("A"), 0)
	clock.Advance(15*time.Minute + time.Second)
	_, ok := e.Get(insight.NamespaceOrders, d)
	require.False(t, ok)
}

func TestEngine_TTLOverride(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	d := ordersDescriptor(1)

	e.Set(insight.NamespaceOrders, d, artifact("A"), 2*time.Minute)
	clock.Advance(3 * time.Minute)
	_, ok := e.Get(insight.NamespaceOrders, d)
	require.False(t, ok)
}

func TestEngine_ClockBucketDriftForcesMiss(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	d1 := ordersDescriptor(3)
	e.Set(insight.NamespaceOrders, d1, artifact("A"), 0)

	d2 := ordersDescriptor(3)
	d2[fingerprint.ClockBucketField] = int64(5001)
	_, ok := e.Get(insight.NamespaceOrders, d2)
	require.False(t, ok)

	_, ok = e.Get(insight.NamespaceOrders, d1)
	require.True(t, ok)
}

func TestEngine_HashCollisionIsAMiss(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock, func(c *cache.Config) {
		c.Hash = func(string) uint32 { return 42 }
	})

	d1 := ordersDescriptor(1)
	d2 := ordersDescriptor(2)
	e.Set(insight.NamespaceOrders, d1, artifact("A"), 0)

	_, ok := e.Get(insight.NamespaceOrders, d2)
	require.False(t, ok)
	require.Equal(t, uint64(0), e.Stats().Hits)

	// the colliding entry was dropped on the fingerprint mismatch
	_, ok = e.Get(insight.NamespaceOrders, d1)
	require.False(t, ok)
}

func TestEngine_InvalidateThenClear(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	e.Set(insight.NamespaceOrders, ordersDescriptor(1), artifact("A"), 0)
	e.Set(insight.NamespaceInventory, fingerprint.Descriptor{"product_count": 4}, artifact("B"), 0)
	e.Set(insight.NamespaceSLA, fingerprint.Descriptor{"late_count": 2}, artifact("C"), 0)
	_, _ = e.Get(insight.NamespaceOrders, ordersDescriptor(1))
	_, _ = e.Get(insight.NamespaceReports, fingerprint.Descriptor{})
	before := e.Stats()

	require.Equal(t, 1, e.Invalidate(insight.NamespaceOrders))
	require.Equal(t, 2, e.Stats().Size)

	require.Equal(t, 2, e.Clear())
	after := e.Stats()
	require.Equal(t, 0, after.Size)
	require.Equal(t, before.Hits, after.Hits)
	require.Equal(t, before.Misses, after.Misses)
}

func TestEngine_InvalidateOnlyMatchesWholeNamespace(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	e.Set("orders", fingerprint.Descriptor{"x": 1}, artifact("A"), 0)
	e.Set("orders-insights", fingerprint.Descriptor{"x": 1}, artifact("B"), 0)
	e.Set("orders-insights-archive", fingerprint.Descriptor{"x": 1}, artifact("C"), 0)

	require.Equal(t, 1, e.Invalidate("orders-insights"))
	sizes := e.NamespaceSizes()
	require.Equal(t, map[string]int{"orders": 1, "orders-insights-archive": 1}, sizes)
}

func TestEngine_SetOverwritesExpiry(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	d := ordersDescriptor(5)

	e.Set(insight.NamespaceOrders, d, artifact("A"), 0)
	clock.Advance(10 * time.Minute)
	e.Set(insight.NamespaceOrders, d, artifact("A"), 0)
	clock.Advance(10 * time.Minute)

	got, ok := e.Get(insight.NamespaceOrders, d)
	require.True(t, ok)
	require.Equal(t, "A", got.Insights[0].Title)
	require.Equal(t, 1, e.Stats().Size)
}

func TestEngine_SetSweepsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	e.Set(insight.NamespaceOrders, ordersDescriptor(1), artifact("A"), time.Minute)
	e.Set(insight.NamespaceOrders, ordersDescriptor(2), artifact("B"), time.Minute)
	clock.Advance(2 * time.Minute)

	e.Set(insight.NamespaceReports, fingerprint.Descriptor{"product_count": 1}, artifact("C"), 0)
	require.Equal(t, 1, e.Stats().Size)
	require.Equal(t, uint64(0), e.Stats().Misses, "sweeping is not a lookup")
}

func TestEngine_CleanupRemovesExpired(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	e.Set(insight.NamespaceOrders, ordersDescriptor(1), artifact("A"), time.Minute)
	e.Set(insight.NamespaceReports, fingerprint.Descriptor{"product_count": 1}, artifact("C"), 0)
	clock.Advance(5 * time.Minute)

	require.Equal(t, 1, e.Cleanup())
	require.Equal(t, 0, e.Cleanup())
	require.Equal(t, 1, e.Stats().Size)
}

func TestEngine_StatsAndReset(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	require.Equal(t, float64(0), e.Stats().HitRate)

	d := ordersDescriptor(1)
	e.Set(insight.NamespaceOrders, d, artifact("A"), 0)
	_, _ = e.Get(insight.NamespaceOrders, d)
	_, _ = e.Get(insight.NamespaceOrders, d)
	_, _ = e.Get(insight.NamespaceOrders, ordersDescriptor(9))

	stats := e.Stats()
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 66.67, stats.HitRate)

	e.ResetStats()
	stats = e.Stats()
	require.Equal(t, uint64(0), stats.Hits)
	require.Equal(t, uint64(0), stats.Misses)
	require.Equal(t, float64(0), stats.HitRate)
	require.Equal(t, 1, stats.Size, "reset keeps entries")
}

func TestEngine_HealthIssues(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock, func(c *cache.Config) {
		c.Health.MaxSize = 2
	})
	require.True(t, e.Health().Healthy)
	require.Empty(t, e.Health().Issues)

	for i := 0; i < 3; i++ {
		e.Set(insight.NamespaceOrders, ordersDescriptor(i), artifact("A"), 0)
	}
	h := e.Health()
	require.False(t, h.Healthy)
	require.Equal(t, []string{"cache size large"}, h.Issues)

	// ten misses are not enough samples to judge the hit rate
	for i := 0; i < 10; i++ {
		_, _ = e.Get(insight.NamespaceOrders, ordersDescriptor(100+i))
	}
	require.NotContains(t, e.Health().Issues, "low hit rate")

	_, _ = e.Get(insight.NamespaceOrders, ordersDescriptor(200))
	require.Contains(t, e.Health().Issues, "low hit rate")
}

func TestEngine_ZeroMinHitRateDisablesRule(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock, func(c *cache.Config) {
		c.Health.MinHitRate = 0
	})
	for i := 0; i < 20; i++ {
		_, _ = e.Get(insight.NamespaceOrders, ordersDescriptor(i))
	}
	require.Equal(t, 0.0, e.Stats().HitRate)
	require.True(t, e.Health().Healthy)

	defaulted := newEngine(clock, func(c *cache.Config) {
		c.Health.MinHitRate = -1
	})
	for i := 0; i < 11; i++ {
		_, _ = defaulted.Get(insight.NamespaceOrders, ordersDescriptor(i))
	}
	require.Equal(t, []string{"low hit rate"}, defaulted.Health().Issues)
}

func TestEngine_LRUEvictionIsNotAMiss(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock, func(c *cache.Config) {
		c.MaxEntries = 2
	})

	e.Set(insight.NamespaceOrders, ordersDescriptor(1), artifact("A"), 0)
	e.Set(insight.NamespaceOrders, ordersDescriptor(2), artifact("B"), 0)
	// touch 1 so 2 becomes least recently used
	_, ok := e.Get(insight.NamespaceOrders, ordersDescriptor(1))
	require.True(t, ok)
	e.Set(insight.NamespaceOrders, ordersDescriptor(3), artifact("C"), 0)

	stats := e.Stats()
	require.Equal(t, 2, stats.Size)
	require.Equal(t, uint64(1), stats.Evictions)
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(0), stats.Misses)

	_, ok = e.Get(insight.NamespaceOrders, ordersDescriptor(1))
	require.True(t, ok)
	_, ok = e.Get(insight.NamespaceOrders, ordersDescriptor(2))
	require.False(t, ok)
}

func TestEngine_ReturnsCopies(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	d := ordersDescriptor(1)

	a := artifact("A")
	e.Set(insight.NamespaceOrders, d, a, 0)
	a.Insights[0].Title = "mutated after set"

	got, ok := e.Get(insight.NamespaceOrders, d)
	require.True(t, ok)
	require.Equal(t, "A", got.Insights[0].Title)
	got.Insights[0].Title = "mutated after get"

	again, _ := e.Get(insight.NamespaceOrders, d)
	require.Equal(t, "A", again.Insights[0].Title)
}

func TestEngine_ReturnsCopiesOfNestedExtra(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)
	d := ordersDescriptor(1)

	a := artifact("A")
	a.Insights[0].Extra = map[string]any{"meta": map[string]any{"owner": "ops"}}
	e.Set(insight.NamespaceOrders, d, a, 0)

	got, ok := e.Get(insight.NamespaceOrders, d)
	require.True(t, ok)
	got.Insights[0].Extra["meta"].(map[string]any)["owner"] = "someone else"

	again, _ := e.Get(insight.NamespaceOrders, d)
	require.Equal(t, "ops", again.Insights[0].Extra["meta"].(map[string]any)["owner"])
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	clock := newFakeClock()
	e := newEngine(clock)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := ordersDescriptor(i % 4)
			for j := 0; j < 50; j++ {
				if _, ok := e.Get(insight.NamespaceOrders, d); !ok {
					e.Set(insight.NamespaceOrders, d, artifact("A"), 0)
				}
			}
		}(i)
	}
	wg.Wait()

	stats := e.Stats()
	require.Equal(t, uint64(16*50), stats.Hits+stats.Misses)
	require.Equal(t, 4, stats.Size)
}

func TestKey_Format(t *testing.T) {
	fp := fingerprint.Fingerprint{Canonical: "x=1", Hash: 0xbeef}
	require.Equal(t, "orders-insights:0000beef", cache.Key(insight.NamespaceOrders, fp))
}
