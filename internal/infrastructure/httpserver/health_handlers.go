package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

const serviceName = "brandbuddy-insights"

type healthReport struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
	Pages        int               `json:"pages"`
}

// healthCheck probes every dependency. A failing probe degrades the service to 503 unless
// the checker is advisory, in which case it is only reported as a warning.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(s.healthCheckers))
	overall := "healthy"
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if err := hc.Check(ctx); err != nil {
			if advisory, ok := hc.(ports.AdvisoryHealthChecker); ok && advisory.Advisory() {
				deps[hc.Name()] = "warning: " + err.Error()
				continue
			}
			deps[hc.Name()] = "unhealthy: " + err.Error()
			overall = "degraded"
			continue
		}
		deps[hc.Name()] = "healthy"
	}

	report := healthReport{
		Status:       overall,
		Timestamp:    s.timestamp(),
		Service:      serviceName,
		Dependencies: deps,
	}
	if s.dashboardSvc != nil {
		report.Pages = len(s.dashboardSvc.Pages())
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, Envelope{
		Success:   overall == "healthy",
		Data:      report,
		Message:   "service is " + overall,
		Timestamp: report.Timestamp,
	})
}
