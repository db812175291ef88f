package ports

import (
	"context"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
)

// InsightRequest carries everything the pipeline needs to fingerprint and prompt.
type InsightRequest struct {
	Namespace string
	Brand     string
	// Summary is the projection summary of the upstream dataset.
	Summary map[string]float64
	// KPIs are the values the prompt depends on; they override Summary on name clashes.
	KPIs map[string]float64
	// Prompt is the fully rendered user prompt.
	Prompt string
	// MaxInsights overrides the namespace cap when positive.
	MaxInsights int
}

type InsightResult struct {
	Artifact insight.Artifact
	Status   insight.Status
	// Reason explains a failed status.
	Reason string
}

// InsightService produces cache-first, LLM-backed insights. It never returns an error:
// LLM and validation failures surface as an empty artifact with StatusFailed.
type InsightService interface {
	ProduceInsights(ctx context.Context, req *InsightRequest) *InsightResult
}
