package services

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"text/template"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
)

// insightSystemPrompt is sent with every insight request.
const insightSystemPrompt = `You are a senior supply chain analyst for a consumer brand.
You answer only with JSON. Never invent numbers that are not in the data you are given.`

var pagePromptTemplate = template.Must(template.New("page").Parse(`Page: {{.Page}}
Brand: {{if .Brand}}{{.Brand}}{{else}}all brands{{end}}
Focus: {{.Focus}}

Current metrics:
{{range .Metrics}}- {{.Name}}: {{.Value}}
{{end}}
Return a JSON object with two keys:
  "insights": an array of at most {{.MaxInsights}} objects, each with
     "title" (short), "description" (one or two sentences),
     "severity" (one of "critical", "warning", "info"),
     "dollar_impact" (non-negative number, omit when unknown),
     "suggested_actions" (array of short imperative strings).
  "kpi_context": one short paragraph explaining what the metrics mean together.
Order insights from most to least urgent.`))

type promptMetric struct {
	Name  string
	Value string
}

type promptData struct {
	Page        string
	Brand       string
	Focus       string
	MaxInsights int
	Metrics     []promptMetric
}

// buildPagePrompt renders the user prompt for one page. Metrics are listed in name order so
// identical inputs render identical prompts.
func buildPagePrompt(page dashboard.Page, brand string, kpis logistics.KPIs) (string, error) {
	names := make([]string, 0, len(kpis))
	for name := range kpis {
		names = append(names, name)
	}
	sort.Strings(names)

	data := promptData{
		Page:        page.Name,
		Brand:       brand,
		Focus:       page.Focus,
		MaxInsights: page.MaxInsights(),
		Metrics:     make([]promptMetric, 0, len(names)),
	}
	for _, name := range names {
		data.Metrics = append(data.Metrics, promptMetric{Name: name, Value: strconv.FormatFloat(kpis[name], 'f', -1, 64)})
	}

	var buf bytes.Buffer
	if err := pagePromptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", page.Name, err)
	}
	return buf.String(), nil
}
