package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "LLM completion calls by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 25, 40},
		},
		[]string{"outcome"},
	)

	breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llm_circuit_breaker_state",
			Help: "0 closed, 1 half-open, 2 open",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(breakerState)
}

func observe(outcome string, started time.Time) {
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}
