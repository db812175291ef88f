package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/application/services"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	tmocks "github.com/mrgetwhateverdone/brandbuddy-production-sub000/test/mocks"
)

func ptime(t time.Time) *time.Time { return &t }

func pageDataset() *logistics.Dataset {
	return &logistics.Dataset{
		Products: []logistics.Product{
			{SKU: "A-1", BrandName: "Acme", ProductName: "Widget", Active: true, UnitCost: 2, OnHand: 3, ReorderPoint: 10, WarehouseID: "W1"},
			{SKU: "B-1", BrandName: "Globex", ProductName: "Gadget", Active: true, UnitCost: 5, OnHand: 50, ReorderPoint: 10, WarehouseID: "W2"},
		},
		Shipments: []logistics.Shipment{
			{ShipmentID: "s1", BrandName: "Acme", Direction: logistics.DirectionOutbound, Status: logistics.StatusInTransit, SKU: "A-1", WarehouseID: "W1", ExpectedDate: ptime(testNow.Add(-48 * time.Hour))},
			{ShipmentID: "s2", BrandName: "Globex", Direction: logistics.DirectionOutbound, Status: logistics.StatusDelivered, SKU: "B-1", WarehouseID: "W2", ExpectedDate: ptime(testNow.Add(-24 * time.Hour)), ArrivalDate: ptime(testNow.Add(-30 * time.Hour))},
		},
		FetchedAt: testNow.Add(-time.Minute),
	}
}

func newDashboardService(repo ports.DatasetRepository, ins ports.InsightService) *impl.DashboardService {
	return impl.NewDashboardService(repo, ins, nil).WithClock(func() time.Time { return testNow })
}

func TestPage_FastModeNeverReachesInsights(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	cm := &tmocks.InsightCacheMock{}
	llm := &tmocks.LLMClientMock{}
	ins := impl.NewInsightService(cm, llm, nil, nil)
	svc := newDashboardService(repo, ins)

	resp, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "orders", Mode: "fast", Brand: "Acme"})
	require.NoError(t, err)
	require.Equal(t, dashboard.ModeFast, resp.Mode)
	require.Equal(t, insight.StatusSkipped, resp.InsightsStatus)
	require.NotNil(t, resp.Insights)
	require.Empty(t, resp.Insights)
	require.Equal(t, float64(1), resp.KPIs[logistics.KPIOrderCount], "brand filter applied")
	require.Contains(t, resp.Sections, "at_risk_orders")

	require.Equal(t, int64(0), llm.Calls.Load())
	require.Equal(t, int64(0), cm.Gets.Load())
	require.Equal(t, int64(0), cm.Mutations.Load())
	require.Equal(t, logistics.ProjectionFull, repo.Queries[0].Projection)
}

func TestPage_InsightsModeUsesSummaryProjection(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	var got *ports.InsightRequest
	ins := &tmocks.InsightServiceMock{ProduceInsightsFn: func(ctx context.Context, req *ports.InsightRequest) *ports.InsightResult {
		got = req
		return &ports.InsightResult{
			Artifact: insight.Artifact{
				Insights:   []insight.Insight{{ID: "orders-insight-1", Title: "t", Description: "d", Severity: insight.SeverityCritical}},
				KPIContext: "context",
			},
			Status: insight.StatusGenerated,
		}
	}}
	svc := newDashboardService(repo, ins)

	resp, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "orders", Mode: "insights", Brand: " Acme "})
	require.NoError(t, err)
	require.Equal(t, logistics.ProjectionSummary, repo.Queries[0].Projection)
	require.Equal(t, "Acme", repo.Queries[0].Filter.Brand)
	require.Equal(t, insight.NamespaceOrders, repo.Queries[0].Namespace)
	require.Nil(t, resp.KPIs)
	require.Nil(t, resp.Sections)
	require.Len(t, resp.Insights, 1)
	require.Equal(t, "context", resp.KPIContext)
	require.Equal(t, insight.StatusGenerated, resp.InsightsStatus)
	require.Equal(t, testNow.Add(-time.Minute), resp.LastUpdated)

	require.NotNil(t, got)
	require.Equal(t, insight.NamespaceOrders, got.Namespace)
	require.Equal(t, "Acme", got.Brand)
	require.Equal(t, 3, got.MaxInsights)
	require.Equal(t, float64(1), got.KPIs[logistics.KPIAtRiskOrderCount])
	require.Contains(t, got.KPIs, logistics.KPIUnfulfillableSKUCount)
	require.True(t, strings.Contains(got.Prompt, "Brand: Acme"))
	require.True(t, strings.Contains(got.Prompt, "at_risk_order_count: 1"))
}

func TestPage_FullModeMergesDataAndInsights(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	ins := &tmocks.InsightServiceMock{ProduceInsightsFn: func(ctx context.Context, req *ports.InsightRequest) *ports.InsightResult {
		return &ports.InsightResult{
			Artifact: insight.Artifact{Insights: []insight.Insight{{ID: "dashboard-insight-1", Title: "t", Description: "d", Severity: insight.SeverityInfo}}},
			Status:   insight.StatusCached,
		}
	}}
	svc := newDashboardService(repo, ins)

	resp, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "Dashboard"})
	require.NoError(t, err)
	require.Equal(t, dashboard.ModeFull, resp.Mode)
	require.Len(t, repo.Queries, 1, "full mode fetches once")
	require.Equal(t, float64(2), resp.KPIs[logistics.KPIProductCount])
	require.Len(t, resp.Sections, 3)
	require.Len(t, resp.Insights, 1)
	require.Equal(t, insight.StatusCached, resp.InsightsStatus)
}

func TestPage_LLMFailureStillServesKPIs(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	llm := &tmocks.LLMClientMock{CompleteFn: func(ctx context.Context, req *ports.CompletionRequest) (string, error) {
		return "", errors.New("timeout")
	}}
	c := newCache()
	svc := newDashboardService(repo, impl.NewInsightService(c, llm, nil, nil))

	resp, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "inventory", Mode: "full"})
	require.NoError(t, err)
	require.Equal(t, insight.StatusFailed, resp.InsightsStatus)
	require.NotNil(t, resp.Insights)
	require.Empty(t, resp.Insights)
	require.NotEmpty(t, resp.KPIs)
	require.Equal(t, 0, c.Stats().Size)
}

func TestPage_UpstreamFailure(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return nil, errors.New("connection refused")
	}}
	ins := &tmocks.InsightServiceMock{}
	svc := newDashboardService(repo, ins)

	_, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "sla", Mode: "insights"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ports.ErrUpstreamFetch))
	require.Equal(t, int64(0), ins.Calls.Load())
}

func TestPage_RejectsUnknownPageAndMode(t *testing.T) {
	svc := newDashboardService(&tmocks.DatasetRepositoryMock{}, &tmocks.InsightServiceMock{})

	_, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "billing"})
	require.True(t, errors.Is(err, dashboard.ErrUnknownPage))

	_, err = svc.Page(context.Background(), &dashboard.PageRequest{Page: "orders", Mode: "slow"})
	require.True(t, errors.Is(err, dashboard.ErrInvalidMode))
}

func TestPage_EveryPageRendersInFastMode(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	svc := newDashboardService(repo, &tmocks.InsightServiceMock{})
	require.Len(t, svc.Pages(), 8)
	for _, name := range svc.Pages() {
		resp, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: name, Mode: "fast"})
		require.NoError(t, err, name)
		require.NotEmpty(t, resp.KPIs, name)
		require.NotEmpty(t, resp.Sections, name)
	}
}

func TestPage_RepeatedInsightsRequestsHitCache(t *testing.T) {
	repo := &tmocks.DatasetRepositoryMock{FetchDatasetFn: func(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
		return pageDataset(), nil
	}}
	llm := &tmocks.LLMClientMock{CompleteFn: func(ctx context.Context, req *ports.CompletionRequest) (string, error) {
		return oneInsight, nil
	}}
	c := newCache()
	ins := impl.NewInsightService(c, llm, nil, nil).WithClock(func() time.Time { return testNow })
	svc := newDashboardService(repo, ins)

	first, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "orders", Mode: "insights", Brand: "Acme"})
	require.NoError(t, err)
	require.Equal(t, insight.StatusGenerated, first.InsightsStatus)

	// full mode computes the same fingerprint from the full projection
	second, err := svc.Page(context.Background(), &dashboard.PageRequest{Page: "orders", Mode: "full", Brand: "Acme"})
	require.NoError(t, err)
	require.Equal(t, insight.StatusCached, second.InsightsStatus)
	require.Equal(t, first.Insights, second.Insights)
	require.Equal(t, int64(1), llm.Calls.Load())
}
