package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

var errLLMNotConfigured = errors.New("llm client not configured")

// InsightConfig groups the insight pipeline settings.
type InsightConfig struct {
	// ClockBucket is the width of the time window folded into every fingerprint.
	ClockBucket time.Duration
	// LLMDeadline bounds a single LLM call.
	LLMDeadline time.Duration
	ModelHint   string
	MaxTokens   int
	Temperature float64
	// SingleFlight coalesces concurrent misses for the same fingerprint into one LLM call.
	SingleFlight bool
}

// InsightService is the cache-first insight pipeline.
type InsightService struct {
	cache  ports.InsightCache
	llm    ports.LLMClient
	cfg    InsightConfig
	clock  func() time.Time
	group  singleflight.Group
	logger *logrus.Logger
}

var _ ports.InsightService = (*InsightService)(nil)

func NewInsightService(cache ports.InsightCache, llm ports.LLMClient, cfg *InsightConfig, logger *logrus.Logger) *InsightService {
	c := InsightConfig{
		ClockBucket: 5 * time.Minute,
		LLMDeadline: 25 * time.Second,
		MaxTokens:   1200,
		Temperature: 0.3,
	}
	if cfg != nil {
		if cfg.ClockBucket > 0 {
			c.ClockBucket = cfg.ClockBucket
		}
		if cfg.LLMDeadline > 0 {
			c.LLMDeadline = cfg.LLMDeadline
		}
		if cfg.MaxTokens > 0 {
			c.MaxTokens = cfg.MaxTokens
		}
		if cfg.Temperature > 0 {
			c.Temperature = cfg.Temperature
		}
		c.ModelHint = cfg.ModelHint
		c.SingleFlight = cfg.SingleFlight
	}
	return &InsightService{cache: cache, llm: llm, cfg: c, clock: time.Now, logger: logger}
}

// WithClock replaces the time source.
func (s *InsightService) WithClock(clock func() time.Time) *InsightService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Descriptor builds the fingerprint descriptor of a request at now: the projection summary,
// the KPIs, the brand and the clock bucket.
func (s *InsightService) Descriptor(req *ports.InsightRequest, now time.Time) fingerprint.Descriptor {
	d := make(fingerprint.Descriptor, len(req.Summary)+len(req.KPIs)+2)
	for k, v := range req.Summary {
		d[k] = v
	}
	for k, v := range req.KPIs {
		d[k] = v
	}
	d[fingerprint.BrandField] = req.Brand
	d[fingerprint.ClockBucketField] = fingerprint.ClockBucket(now, s.cfg.ClockBucket)
	return d
}

func (s *InsightService) ProduceInsights(ctx context.Context, req *ports.InsightRequest) *ports.InsightResult {
	now := s.clock()
	d := s.Descriptor(req, now)

	if artifact, ok := s.cache.Get(req.Namespace, d); ok {
		return &ports.InsightResult{Artifact: artifact, Status: insight.StatusCached}
	}

	if !s.cfg.SingleFlight {
		return s.generate(ctx, req, d, now)
	}

	ns, _ := insight.LookupNamespace(req.Namespace)
	key := req.Namespace + "|" + fingerprint.Canonical(ns.Schema, d)
	// the shared call must outlive whichever caller happened to start it
	v, _, shared := s.group.Do(key, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), req, d, now), nil
	})
	res := v.(*ports.InsightResult)
	if shared {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"namespace": req.Namespace, "brand": req.Brand}).Debug("insight generation coalesced")
		}
		out := *res
		out.Artifact = res.Artifact.Clone()
		return &out
	}
	return res
}

// generate calls the LLM, validates the answer and caches it when at least one insight survives.
func (s *InsightService) generate(ctx context.Context, req *ports.InsightRequest, d fingerprint.Descriptor, now time.Time) *ports.InsightResult {
	if s.llm == nil {
		return s.failed(req, errLLMNotConfigured)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMDeadline)
	defer cancel()

	started := time.Now()
	raw, err := s.llm.Complete(callCtx, &ports.CompletionRequest{
		SystemPrompt: insightSystemPrompt,
		Prompt:       req.Prompt,
		ModelHint:    s.cfg.ModelHint,
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	})
	if err != nil {
		return s.failed(req, err)
	}

	maxInsights := req.MaxInsights
	if maxInsights <= 0 {
		ns, _ := insight.LookupNamespace(req.Namespace)
		maxInsights = ns.MaxInsights
	}
	artifact, err := insight.ParseResponse(raw, insight.ParseOptions{
		Namespace:   req.Namespace,
		MaxInsights: maxInsights,
		Now:         now,
	})
	if err != nil {
		return s.failed(req, err)
	}
	if artifact.Empty() {
		return s.failed(req, insight.ErrNoValidInsights)
	}

	s.cache.Set(req.Namespace, d, artifact, 0)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"namespace": req.Namespace,
			"brand":     req.Brand,
			"insights":  len(artifact.Insights),
			"duration":  time.Since(started).String(),
		}).Info("insights generated")
	}
	return &ports.InsightResult{Artifact: artifact, Status: insight.StatusGenerated}
}

func (s *InsightService) failed(req *ports.InsightRequest, err error) *ports.InsightResult {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"namespace": req.Namespace, "brand": req.Brand}).WithError(err).Warn("insight generation failed")
	}
	return &ports.InsightResult{
		Artifact: insight.Artifact{Insights: []insight.Insight{}},
		Status:   insight.StatusFailed,
		Reason:   err.Error(),
	}
}
