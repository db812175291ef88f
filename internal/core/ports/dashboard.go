package ports

import (
	"context"
	"errors"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
)

// ErrNamespaceRequired is returned by targeted invalidation without a namespace.
var ErrNamespaceRequired = errors.New("namespace is required")

// DashboardService routes page loads by mode.
type DashboardService interface {
	Page(ctx context.Context, req *dashboard.PageRequest) (*dashboard.PageResponse, error)
	Pages() []string
}

type CacheStatsReport struct {
	CacheStats
	TotalRequests uint64 `json:"total_requests"`
	Performance   string `json:"performance"`
}

type CacheHealthReport struct {
	CacheHealth
	Recommendations []string         `json:"recommendations"`
	Stats           CacheStatsReport `json:"stats"`
}

type CachePerformanceReport struct {
	CacheStatsReport
	CostPerCall      float64 `json:"cost_per_call"`
	EstimatedSavings float64 `json:"estimated_savings"`
	Currency         string  `json:"currency"`
	Note             string  `json:"note"`
}

type CacheOverview struct {
	Size             int            `json:"size"`
	HitRate          float64        `json:"hit_rate"`
	Healthy          bool           `json:"healthy"`
	Namespaces       map[string]int `json:"namespaces"`
	AvailableActions []string       `json:"available_actions"`
}

// CacheManagementService is the operator view over the insight cache.
type CacheManagementService interface {
	Stats() *CacheStatsReport
	Health() *CacheHealthReport
	Performance() *CachePerformanceReport
	Overview() *CacheOverview
	Cleanup() int
	ResetStats()
	Invalidate(namespace string) (int, error)
	Clear() int
}
