package insight

import (
	"encoding/json"
	"strings"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ParseSeverity maps free text onto a known severity. Anything unrecognized is a warning.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityInfo:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Insight is one LLM-generated observation shown next to a page's KPIs.
// Keys the model returns beyond the known fields are kept in Extra and
// flattened back into the JSON object on output.
type Insight struct {
	ID               string         `json:"id"`
	Title            string         `json:"title" validate:"required"`
	Description      string         `json:"description" validate:"required"`
	Severity         Severity       `json:"severity" validate:"required,oneof=critical warning info"`
	DollarImpact     *float64       `json:"dollar_impact,omitempty" validate:"omitempty,gte=0"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Source           string         `json:"source"`
	CreatedAt        time.Time      `json:"created_at"`
	Extra            map[string]any `json:"-"`
}

type insightAlias Insight

func (i Insight) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(insightAlias(i))
	if err != nil {
		return nil, err
	}
	if len(i.Extra) == 0 {
		return known, nil
	}
	merged := make(map[string]any, len(i.Extra)+8)
	for k, v := range i.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (i *Insight) UnmarshalJSON(data []byte) error {
	var alias insightAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range knownFields {
		delete(raw, k)
	}
	*i = Insight(alias)
	if len(raw) > 0 {
		i.Extra = raw
	}
	return nil
}

func (i Insight) clone() Insight {
	out := i
	if i.DollarImpact != nil {
		v := *i.DollarImpact
		out.DollarImpact = &v
	}
	if i.SuggestedActions != nil {
		out.SuggestedActions = append([]string(nil), i.SuggestedActions...)
	}
	if i.Extra != nil {
		out.Extra = cloneMap(i.Extra)
	}
	return out
}

// cloneValue copies the container types a decoded JSON payload can hold; scalars are
// immutable and returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Artifact is what the insight cache stores for one (namespace, fingerprint):
// the insight list and the KPI context paragraph from the same LLM round.
type Artifact struct {
	Insights   []Insight `json:"insights"`
	KPIContext string    `json:"kpi_context,omitempty"`
}

func (a Artifact) Empty() bool { return len(a.Insights) == 0 }

// Clone returns a deep copy so cached values are never shared with callers.
func (a Artifact) Clone() Artifact {
	out := Artifact{KPIContext: a.KPIContext}
	if a.Insights != nil {
		out.Insights = make([]Insight, len(a.Insights))
		for i, in := range a.Insights {
			out.Insights[i] = in.clone()
		}
	}
	return out
}

// Status tells the UI why a page has, or lacks, insights.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusGenerated Status = "generated"
	StatusCached    Status = "cached"
	StatusFailed    Status = "failed"
)
