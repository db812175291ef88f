package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	pageLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_page_loads_total",
			Help: "Page loads by page, mode and insights status",
		},
		[]string{"page", "mode", "insights_status"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, pageLoads)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

func recordPage(resp *dashboard.PageResponse) {
	pageLoads.WithLabelValues(resp.Page, string(resp.Mode), string(resp.InsightsStatus)).Inc()
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithField("metrics_endpoint", "/metrics").Info("Prometheus metrics registered")
	}
}

func (s *Server) metricsEndpoint(c echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
