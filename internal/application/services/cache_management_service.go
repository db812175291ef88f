package services

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// Management actions, as accepted by the cache-management endpoint.
const (
	ActionStats       = "stats"
	ActionHealth      = "health"
	ActionPerformance = "performance"
	ActionCleanup     = "cleanup"
	ActionResetStats  = "reset-stats"
	ActionInvalidate  = "invalidate"
)

const (
	defaultCostPerCall = 0.02
	costCurrency       = "USD"
	costNote           = "Illustrative estimate: cache hits multiplied by a configured per-call cost."
)

var recommendations = map[string]string{
	"cache size large": "Tighten cleanup or cap the cache size (CACHE_MAX_ENTRIES).",
	"low hit rate":     "Raise namespace TTLs or widen the clock bucket so more requests share a fingerprint.",
}

// CacheManagementService is the operator view over the insight cache.
type CacheManagementService struct {
	cache       ports.InsightCache
	costPerCall float64
	logger      *logrus.Logger
}

var _ ports.CacheManagementService = (*CacheManagementService)(nil)

// NewCacheManagementService builds the service. costPerCall <= 0 uses the default unit cost.
func NewCacheManagementService(cache ports.InsightCache, costPerCall float64, logger *logrus.Logger) *CacheManagementService {
	if costPerCall <= 0 {
		costPerCall = defaultCostPerCall
	}
	return &CacheManagementService{cache: cache, costPerCall: costPerCall, logger: logger}
}

// PerformanceLabel grades a hit rate percentage.
func PerformanceLabel(hitRate float64) string {
	switch {
	case hitRate >= 70:
		return "Excellent"
	case hitRate >= 50:
		return "Good"
	case hitRate >= 30:
		return "Fair"
	default:
		return "Poor"
	}
}

func (s *CacheManagementService) Stats() *ports.CacheStatsReport {
	stats := s.cache.Stats()
	return &ports.CacheStatsReport{
		CacheStats:    stats,
		TotalRequests: stats.Hits + stats.Misses,
		Performance:   PerformanceLabel(stats.HitRate),
	}
}

func (s *CacheManagementService) Health() *ports.CacheHealthReport {
	health := s.cache.Health()
	recs := make([]string, 0, len(health.Issues))
	for _, issue := range health.Issues {
		if rec, ok := recommendations[issue]; ok {
			recs = append(recs, rec)
			continue
		}
		recs = append(recs, "Investigate: "+issue)
	}
	return &ports.CacheHealthReport{
		CacheHealth:     health,
		Recommendations: recs,
		Stats:           *s.Stats(),
	}
}

func (s *CacheManagementService) Performance() *ports.CachePerformanceReport {
	stats := s.Stats()
	return &ports.CachePerformanceReport{
		CacheStatsReport: *stats,
		CostPerCall:      s.costPerCall,
		EstimatedSavings: math.Round(float64(stats.Hits)*s.costPerCall*100) / 100,
		Currency:         costCurrency,
		Note:             costNote,
	}
}

func (s *CacheManagementService) Overview() *ports.CacheOverview {
	stats := s.cache.Stats()
	return &ports.CacheOverview{
		Size:       stats.Size,
		HitRate:    stats.HitRate,
		Healthy:    s.cache.Health().Healthy,
		Namespaces: s.cache.NamespaceSizes(),
		AvailableActions: []string{
			"GET ?action=" + ActionStats,
			"GET ?action=" + ActionHealth,
			"GET ?action=" + ActionPerformance,
			"POST ?action=" + ActionCleanup,
			"POST ?action=" + ActionResetStats,
			"POST ?action=" + ActionInvalidate + "&namespace=<name>",
			"DELETE [?namespace=<name>]",
		},
	}
}

func (s *CacheManagementService) Cleanup() int {
	removed := s.cache.Cleanup()
	if s.logger != nil {
		s.logger.WithField("removed", removed).Info("insight cache cleanup")
	}
	return removed
}

func (s *CacheManagementService) ResetStats() {
	s.cache.ResetStats()
}

func (s *CacheManagementService) Invalidate(namespace string) (int, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return 0, ports.ErrNamespaceRequired
	}
	return s.cache.Invalidate(namespace), nil
}

func (s *CacheManagementService) Clear() int {
	return s.cache.Clear()
}

