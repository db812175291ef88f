package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/application/services"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/cache"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver"
	tmocks "github.com/mrgetwhateverdone/brandbuddy-production-sub000/test/mocks"
)

const completion = `{"insights":[
 {"title":"Late orders","description":"One order is two days past its promised date.","severity":"critical"},
 {"title":"Low stock","description":"A-1 is below its reorder point.","severity":"warning","dollar_impact":120}
],"kpi_context":"Fulfilment is slipping for one brand."}`

var now = time.Date(2026, 3, 2, 10, 1, 0, 0, time.UTC)

type pageData struct {
	Page           string             `json:"page"`
	Mode           string             `json:"mode"`
	KPIs           map[string]float64 `json:"kpis"`
	Sections       map[string]any     `json:"sections"`
	Insights       []map[string]any   `json:"insights"`
	KPIContext     string             `json:"kpi_context"`
	InsightsStatus string             `json:"insights_status"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Timestamp string          `json:"timestamp"`
}

// APITestSuite drives the whole stack over HTTP: real cache engine and services, with the
// datastore and LLM replaced by mocks.
type APITestSuite struct {
	suite.Suite
	httpSrv  *httptest.Server
	client   *http.Client
	engine   *cache.Engine
	llm      *tmocks.LLMClientMock
	orders   atomic.Int32
	llmFails atomic.Bool
}

func (s *APITestSuite) SetupTest() {
	s.orders.Store(1)
	s.llmFails.Store(false)

	clock := func() time.Time { return now }
	cfg := cache.DefaultConfig()
	cfg.Clock = clock
	s.engine = cache.NewEngine(cfg, nil)

	s.llm = &tmocks.LLMClientMock{CompleteFn: func(ctx context.Context, req *ports.CompletionRequest) (string, error) {
		if s.llmFails.Load() {
			return "", errors.New("provider unavailable")
		}
		return completion, nil
	}}
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return s.dataset(), nil
	}}

	insights := services.NewInsightService(s.engine, s.llm, nil, nil).WithClock(clock)
	dashboardSvc := services.NewDashboardService(repo, insights, nil).WithClock(clock)
	server := httpserver.NewServer(&httpserver.ServerConfig{}, nil, httpserver.ServerDeps{
		DashboardService:       dashboardSvc,
		CacheManagementService: services.NewCacheManagementService(s.engine, 0, nil),
	})

	s.httpSrv = httptest.NewServer(server.Echo())
	s.client = s.httpSrv.Client()
}

func (s *APITestSuite) TearDownTest() {
	s.httpSrv.Close()
}

func (s *APITestSuite) dataset() *logistics.Dataset {
	late := now.Add(-48 * time.Hour)
	ds := &logistics.Dataset{
		Products: []logistics.Product{
			{SKU: "A-1", BrandName: "Acme", Active: true, UnitCost: 4, OnHand: 2, ReorderPoint: 10},
			{SKU: "B-1", BrandName: "Globex", Active: true, UnitCost: 9, OnHand: 80, ReorderPoint: 10},
		},
		FetchedAt: now,
	}
	for i := int32(0); i < s.orders.Load(); i++ {
		ds.Shipments = append(ds.Shipments, logistics.Shipment{
			ShipmentID: "s", BrandName: "Acme", Direction: logistics.DirectionOutbound,
			Status: logistics.StatusInTransit, SKU: "A-1", ExpectedDate: &late,
		})
	}
	ds.Summary = logistics.Summary{ProductCount: len(ds.Products), ShipmentCount: len(ds.Shipments)}
	return ds
}

func (s *APITestSuite) call(method, path string) (int, envelope) {
	req, err := http.NewRequest(method, s.httpSrv.URL+path, nil)
	s.Require().NoError(err)
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *APITestSuite) page(path string) pageData {
	code, env := s.call(http.MethodGet, path)
	s.Require().Equal(http.StatusOK, code, env.Error)
	s.Require().True(env.Success)
	var data pageData
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data
}

func (s *APITestSuite) stats() ports.CacheStatsReport {
	code, env := s.call(http.MethodGet, "/api/cache-management?action=stats")
	s.Require().Equal(http.StatusOK, code)
	var stats ports.CacheStatsReport
	s.Require().NoError(json.Unmarshal(env.Data, &stats))
	return stats
}

func (s *APITestSuite) TestProgressiveLoad() {
	fast := s.page("/api/orders?mode=fast")
	s.Equal("skipped", fast.InsightsStatus)
	s.Empty(fast.Insights)
	s.NotEmpty(fast.KPIs)
	s.Equal(int64(0), s.llm.Calls.Load())

	first := s.page("/api/orders?mode=insights")
	s.Equal("generated", first.InsightsStatus)
	s.Len(first.Insights, 2)
	s.Equal("Fulfilment is slipping for one brand.", first.KPIContext)
	s.Equal(int64(1), s.llm.Calls.Load())

	second := s.page("/api/orders?mode=insights")
	s.Equal("cached", second.InsightsStatus)
	s.Equal(first.Insights, second.Insights)

	full := s.page("/api/orders")
	s.Equal("full", full.Mode)
	s.Equal("cached", full.InsightsStatus)
	s.NotEmpty(full.Sections)
	s.Equal(int64(1), s.llm.Calls.Load())

	stats := s.stats()
	s.Equal(uint64(2), stats.Hits)
	s.Equal(uint64(1), stats.Misses)
	s.Equal(1, stats.Size)
}

func (s *APITestSuite) TestDataDriftRegenerates() {
	s.page("/api/orders?mode=insights")
	s.orders.Store(3)
	again := s.page("/api/orders?mode=insights")
	s.Equal("generated", again.InsightsStatus)
	s.Equal(int64(2), s.llm.Calls.Load())
}

func (s *APITestSuite) TestBrandsAreCachedSeparately() {
	s.page("/api/orders?mode=insights&brand=Acme")
	other := s.page("/api/orders?mode=insights&brand=Globex")
	s.Equal("generated", other.InsightsStatus)
	s.Equal(2, s.stats().Size)
}

func (s *APITestSuite) TestLLMFailureNeverPoisonsCache() {
	s.llmFails.Store(true)
	failed := s.page("/api/inventory")
	s.Equal("failed", failed.InsightsStatus)
	s.NotNil(failed.Insights)
	s.Empty(failed.Insights)
	s.NotEmpty(failed.KPIs)
	s.Equal(0, s.stats().Size)

	s.llmFails.Store(false)
	recovered := s.page("/api/inventory?mode=insights")
	s.Equal("generated", recovered.InsightsStatus)
}

func (s *APITestSuite) TestInvalidateForcesRegeneration() {
	s.page("/api/orders?mode=insights")
	s.page("/api/inventory?mode=insights")

	code, _ := s.call(http.MethodPost, "/api/cache-management?action=invalidate&namespace=orders-insights")
	s.Equal(http.StatusOK, code)

	s.Equal("generated", s.page("/api/orders?mode=insights").InsightsStatus)
	s.Equal("cached", s.page("/api/inventory?mode=insights").InsightsStatus)

	code, env := s.call(http.MethodDelete, "/api/cache-management")
	s.Equal(http.StatusOK, code)
	s.JSONEq(`{"removed":2}`, string(env.Data))
	s.Equal(0, s.stats().Size)
}

func (s *APITestSuite) TestUnknownPage() {
	code, env := s.call(http.MethodGet, "/api/nowhere?mode=fast")
	s.Equal(http.StatusNotFound, code)
	s.False(env.Success)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
