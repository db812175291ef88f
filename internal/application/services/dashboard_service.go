package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// DashboardService serves page loads in fast, insights or full mode.
type DashboardService struct {
	datasets ports.DatasetRepository
	insights ports.InsightService
	clock    func() time.Time
	logger   *logrus.Logger
}

var _ ports.DashboardService = (*DashboardService)(nil)

func NewDashboardService(datasets ports.DatasetRepository, insights ports.InsightService, logger *logrus.Logger) *DashboardService {
	return &DashboardService{datasets: datasets, insights: insights, clock: time.Now, logger: logger}
}

// WithClock replaces the time source used for KPI evaluation.
func (s *DashboardService) WithClock(clock func() time.Time) *DashboardService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *DashboardService) Pages() []string { return dashboard.PageNames() }

func (s *DashboardService) Page(ctx context.Context, req *dashboard.PageRequest) (*dashboard.PageResponse, error) {
	page, err := dashboard.LookupPage(req.Page)
	if err != nil {
		return nil, err
	}
	mode, err := dashboard.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	brand := strings.TrimSpace(req.Brand)

	resp := &dashboard.PageResponse{
		Page:           page.Name,
		Mode:           mode,
		Brand:          brand,
		Insights:       []insight.Insight{},
		InsightsStatus: insight.StatusSkipped,
	}

	projection := logistics.ProjectionFull
	if mode == dashboard.ModeInsights {
		projection = logistics.ProjectionSummary
	}
	ds, err := s.fetch(ctx, page, brand, projection)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	kpis := logistics.ComputeKPIs(ds, now)
	resp.LastUpdated = now
	if !ds.FetchedAt.IsZero() {
		resp.LastUpdated = ds.FetchedAt
	}

	if mode != dashboard.ModeInsights {
		resp.KPIs = kpis.Select(page.KPIs...)
		resp.Sections = page.BuildSections(ds, now)
	}
	if mode.ReachesLLM() {
		s.attachInsights(ctx, page, brand, ds, kpis, resp)
	}
	return resp, nil
}

func (s *DashboardService) fetch(ctx context.Context, page dashboard.Page, brand string, projection logistics.Projection) (*logistics.Dataset, error) {
	ds, err := s.datasets.FetchDataset(ctx, logistics.DatasetQuery{
		Namespace:  page.Namespace,
		Filter:     logistics.Filter{Brand: brand},
		Projection: projection,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"page": page.Name, "brand": brand, "projection": projection}).WithError(err).Error("dataset fetch failed")
		}
		if errors.Is(err, ports.ErrUpstreamFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrUpstreamFetch, err)
	}
	if ds == nil {
		ds = &logistics.Dataset{}
	}
	return logistics.ApplyBrandFilter(ds, logistics.Filter{Brand: brand}), nil
}

func (s *DashboardService) attachInsights(ctx context.Context, page dashboard.Page, brand string, ds *logistics.Dataset, kpis logistics.KPIs, resp *dashboard.PageResponse) {
	promptKPIs := page.PromptKPIs(kpis)
	prompt, err := buildPagePrompt(page, brand, promptKPIs)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("page", page.Name).WithError(err).Error("prompt rendering failed")
		}
		resp.InsightsStatus = insight.StatusFailed
		return
	}

	res := s.insights.ProduceInsights(ctx, &ports.InsightRequest{
		Namespace:   page.Namespace,
		Brand:       brand,
		Summary:     ds.Summary.Features(),
		KPIs:        promptKPIs,
		Prompt:      prompt,
		MaxInsights: page.MaxInsights(),
	})
	resp.InsightsStatus = res.Status
	resp.KPIContext = res.Artifact.KPIContext
	if len(res.Artifact.Insights) > 0 {
		resp.Insights = res.Artifact.Insights
	}
}
