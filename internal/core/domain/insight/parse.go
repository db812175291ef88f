package insight

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnparseableResponse = errors.New("llm response is not parseable as insights")
	ErrNoValidInsights     = errors.New("llm response contained no valid insights")
)

// maxDecodeAttempts bounds how many '[' / '{' offsets are tried when the model wraps
// its JSON in prose.
const maxDecodeAttempts = 16

var knownFields = map[string]struct{}{
	"id":                {},
	"title":             {},
	"description":       {},
	"severity":          {},
	"dollar_impact":     {},
	"dollarImpact":      {},
	"suggested_actions": {},
	"suggestedActions":  {},
	"source":            {},
	"created_at":        {},
	"createdAt":         {},
}

var validate = validator.New()

// ParseOptions controls normalization of one LLM response.
type ParseOptions struct {
	Namespace string
	// MaxInsights caps the list; zero uses the namespace default.
	MaxInsights int
	// Now stamps records without created_at; zero uses the wall clock.
	Now time.Time
}

// ParseResponse turns raw model output into a validated artifact.
//
// Records missing title, description or severity are dropped. Records sharing a
// model-supplied id collapse to the later one. The list is truncated to the
// namespace maximum keeping the prefix, then ids are reassigned as
// "<root>-insight-<n>". An empty result is ErrNoValidInsights.
func ParseResponse(raw string, opts ParseOptions) (Artifact, error) {
	records, kpiContext, err := decodeResponse(raw)
	if err != nil {
		return Artifact{}, err
	}

	ns, _ := LookupNamespace(opts.Namespace)
	limit := opts.MaxInsights
	if limit <= 0 {
		limit = ns.MaxInsights
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	root := ns.Root()

	candidates := make([]candidate, 0, len(records))
	for _, rec := range records {
		if c, ok := normalizeRecord(rec, root, now); ok {
			candidates = append(candidates, c)
		}
	}
	candidates = dedupe(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return Artifact{}, ErrNoValidInsights
	}

	out := Artifact{Insights: make([]Insight, len(candidates)), KPIContext: kpiContext}
	for i, c := range candidates {
		c.insight.ID = fmt.Sprintf("%s-insight-%d", root, i+1)
		out.Insights[i] = c.insight
	}
	return out, nil
}

type candidate struct {
	insight    Insight
	providedID string
}

func dedupe(in []candidate) []candidate {
	last := make(map[string]int, len(in))
	for i, c := range in {
		if c.providedID != "" {
			last[c.providedID] = i
		}
	}
	out := in[:0:0]
	for i, c := range in {
		if c.providedID != "" && last[c.providedID] != i {
			continue
		}
		out = append(out, c)
	}
	return out
}

func decodeResponse(raw string) ([]any, string, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty response", ErrUnparseableResponse)
	}

	offset := 0
	for attempt := 0; attempt < maxDecodeAttempts; attempt++ {
		idx := strings.IndexAny(text[offset:], "[{")
		if idx < 0 {
			break
		}
		start := offset + idx
		offset = start + 1

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		switch t := v.(type) {
		case []any:
			if containsObject(t) {
				return t, "", nil
			}
		case map[string]any:
			kpiContext := stringValue(lookup(t, "kpi_context", "kpiContext"))
			if arr, ok := t["insights"].([]any); ok {
				return arr, kpiContext, nil
			}
			if _, ok := t["title"]; ok {
				return []any{t}, kpiContext, nil
			}
		}
	}
	return nil, "", ErrUnparseableResponse
}

func stripFences(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func containsObject(arr []any) bool {
	for _, v := range arr {
		if _, ok := v.(map[string]any); ok {
			return true
		}
	}
	return false
}

func normalizeRecord(rec any, root string, now time.Time) (candidate, bool) {
	m, ok := rec.(map[string]any)
	if !ok {
		return candidate{}, false
	}
	severity := stringValue(m["severity"])
	if severity == "" {
		return candidate{}, false
	}

	in := Insight{
		Title:       stringValue(m["title"]),
		Description: stringValue(m["description"]),
		Severity:    ParseSeverity(severity),
		Source:      stringValue(m["source"]),
		CreatedAt:   now,
	}
	if v, ok := m["dollar_impact"]; ok {
		in.DollarImpact = nonNegative(v)
	} else if v, ok := m["dollarImpact"]; ok {
		in.DollarImpact = nonNegative(v)
	}
	in.SuggestedActions = actions(lookup(m, "suggested_actions", "suggestedActions"))
	if in.Source == "" {
		in.Source = root
	}
	if ts := stringValue(lookup(m, "created_at", "createdAt")); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			in.CreatedAt = t
		}
	}
	for k, v := range m {
		if _, known := knownFields[k]; known {
			continue
		}
		if in.Extra == nil {
			in.Extra = make(map[string]any)
		}
		in.Extra[k] = v
	}

	if err := validate.Struct(in); err != nil {
		return candidate{}, false
	}
	return candidate{insight: in, providedID: stringValue(m["id"])}, true
}

func lookup(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func nonNegative(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return nil
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func actions(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
