package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_hits_total",
			Help: "Insight cache lookups served from cache",
		},
		[]string{"namespace"},
	)

	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_misses_total",
			Help: "Insight cache lookups that fell through to the LLM, by reason",
		},
		[]string{"namespace", "reason"},
	)

	cacheSetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_sets_total",
			Help: "Insight artifacts written to the cache",
		},
		[]string{"namespace"},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_cache_evictions_total",
			Help: "Entries evicted by the size cap",
		},
	)

	cacheRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_removed_total",
			Help: "Entries removed by expiry sweep, invalidation or clear",
		},
		[]string{"cause"},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "insight_cache_entries",
			Help: "Entries currently held by the insight cache",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(cacheSetsTotal)
	prometheus.MustRegister(cacheEvictionsTotal)
	prometheus.MustRegister(cacheRemovedTotal)
	prometheus.MustRegister(cacheEntries)
}
