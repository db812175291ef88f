package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// LLMClientMock is a lightweight mock for LLMClient. Calls counts every Complete call.
type LLMClientMock struct {
	CompleteFn func(ctx context.Context, req *ports.CompletionRequest) (string, error)
	Calls      atomic.Int64
}

func (m *LLMClientMock) Complete(ctx context.Context, req *ports.CompletionRequest) (string, error) {
	m.Calls.Add(1)
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	return "", fmt.Errorf("llm not stubbed")
}

// DatasetRepositoryMock is a lightweight mock for DatasetRepository.
type DatasetRepositoryMock struct {
	FetchDatasetFn func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error)

	mu      sync.Mutex
	Queries []logistics.DatasetQuery
}

func (m *DatasetRepositoryMock) FetchDataset(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()
	if m.FetchDatasetFn != nil {
		return m.FetchDatasetFn(ctx, q)
	}
	return &logistics.Dataset{}, nil
}

// InsightCacheMock records mutations so tests can assert a code path never touched the cache.
type InsightCacheMock struct {
	GetFn        func(namespace string, d fingerprint.Descriptor) (insight.Artifact, bool)
	SetFn        func(namespace string, d fingerprint.Descriptor, artifact insight.Artifact, ttl time.Duration)
	InvalidateFn func(namespace string) int
	ClearFn      func() int
	CleanupFn    func() int
	StatsFn      func() ports.CacheStats
	HealthFn     func() ports.CacheHealth
	SizesFn      func() map[string]int

	Gets      atomic.Int64
	Mutations atomic.Int64
}

func (m *InsightCacheMock) Get(namespace string, d fingerprint.Descriptor) (insight.Artifact, bool) {
	m.Gets.Add(1)
	if m.GetFn != nil {
		return m.GetFn(namespace, d)
	}
	return insight.Artifact{}, false
}
func (m *InsightCacheMock) Set(namespace string, d fingerprint.Descriptor, artifact insight.Artifact, ttl time.Duration) {
	m.Mutations.Add(1)
	if m.SetFn != nil {
		m.SetFn(namespace, d, artifact, ttl)
	}
}
func (m *InsightCacheMock) Invalidate(namespace string) int {
	m.Mutations.Add(1)
	if m.InvalidateFn != nil {
		return m.InvalidateFn(namespace)
	}
	return 0
}
func (m *InsightCacheMock) Clear() int {
	m.Mutations.Add(1)
	if m.ClearFn != nil {
		return m.ClearFn()
	}
	return 0
}
func (m *InsightCacheMock) Cleanup() int {
	m.Mutations.Add(1)
	if m.CleanupFn != nil {
		return m.CleanupFn()
	}
	return 0
}
func (m *InsightCacheMock) Stats() ports.CacheStats {
	if m.StatsFn != nil {
		return m.StatsFn()
	}
	return ports.CacheStats{}
}
func (m *InsightCacheMock) Health() ports.CacheHealth {
	if m.HealthFn != nil {
		return m.HealthFn()
	}
	return ports.CacheHealth{Healthy: true, Issues: []string{}}
}
func (m *InsightCacheMock) ResetStats() { m.Mutations.Add(1) }
func (m *InsightCacheMock) NamespaceSizes() map[string]int {
	if m.SizesFn != nil {
		return m.SizesFn()
	}
	return map[string]int{}
}

// InsightServiceMock is a lightweight mock for InsightService.
type InsightServiceMock struct {
	ProduceInsightsFn func(ctx context.Context, req *ports.InsightRequest) *ports.InsightResult
	Calls             atomic.Int64
}

func (m *InsightServiceMock) ProduceInsights(ctx context.Context, req *ports.InsightRequest) *ports.InsightResult {
	m.Calls.Add(1)
	if m.ProduceInsightsFn != nil {
		return m.ProduceInsightsFn(ctx, req)
	}
	return &ports.InsightResult{Artifact: insight.Artifact{Insights: []insight.Insight{}}, Status: insight.StatusFailed, Reason: "not stubbed"}
}

// DashboardServiceMock is a lightweight mock for DashboardService.
type DashboardServiceMock struct {
	PageFn func(ctx context.Context, req *dashboard.PageRequest) (*dashboard.PageResponse, error)
}

func (m *DashboardServiceMock) Page(ctx context.Context, req *dashboard.PageRequest) (*dashboard.PageResponse, error) {
	if m.PageFn != nil {
		return m.PageFn(ctx, req)
	}
	return &dashboard.PageResponse{Page: req.Page, Insights: []insight.Insight{}}, nil
}
func (m *DashboardServiceMock) Pages() []string { return dashboard.PageNames() }

// RateLimiterServiceMock allows every request unless AllowFn says otherwise.
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, key string) (bool, int, int, time.Time, error)
	Keys    []string
}

// Allow implements ports.RateLimiterService.
func (m *RateLimiterServiceMock) Allow(ctx context.Context, key string) (allowed bool, remaining int, limit int, reset time.Time, err error) {
	m.Keys = append(m.Keys, key)
	if m.AllowFn != nil {
		return m.AllowFn(ctx, key)
	}
	return true, 100, 1000, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository.
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, key, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// CacheMock is an in-memory ports.Cache. TTLs are recorded, not enforced.
type CacheMock struct {
	mu      sync.Mutex
	Items   map[string][]byte
	TTLs    map[string]time.Duration
	Deleted []string
	GetErr  error
	SetErr  error
}

func NewCacheMock() *CacheMock {
	return &CacheMock{Items: map[string][]byte{}, TTLs: map[string]time.Duration{}}
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	b, ok := m.Items[key]
	return b, ok, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Items[key] = value
	m.TTLs[key] = ttl
	return nil
}
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Items, key)
	delete(m.TTLs, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// HealthCheckerMock is a lightweight mock for HealthChecker.
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
