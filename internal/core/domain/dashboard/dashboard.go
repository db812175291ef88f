package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
)

var (
	ErrUnknownPage = errors.New("unknown page")
	ErrInvalidMode = errors.New("invalid mode")
)

// Mode splits a page load into a fast data response and a slower insights response.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeInsights Mode = "insights"
	ModeFull     Mode = "full"
)

// ParseMode accepts fast, insights or full; an empty value means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeFast:
		return ModeFast, nil
	case ModeInsights:
		return ModeInsights, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ReachesLLM reports whether a request in this mode may call the LLM.
func (m Mode) ReachesLLM() bool { return m == ModeInsights || m == ModeFull }

type PageRequest struct {
	Page  string `json:"page"`
	Mode  string `json:"mode"`
	Brand string `json:"brand"`
}

type PageResponse struct {
	Page           string            `json:"page"`
	Mode           Mode              `json:"mode"`
	Brand          string            `json:"brand,omitempty"`
	KPIs           logistics.KPIs    `json:"kpis,omitempty"`
	Sections       map[string]any    `json:"sections,omitempty"`
	Insights       []insight.Insight `json:"insights"`
	KPIContext     string            `json:"kpi_context,omitempty"`
	InsightsStatus insight.Status    `json:"insights_status"`
	LastUpdated    time.Time         `json:"last_updated"`
}
