package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Latency of upstream LLM calls.",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40},
	}, []string{"provider", "op", "status"})
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "llm_circuit_breaker_state",
		Help: "0=closed 1=half-open 2=open",
	}, []string{"provider"})
)

// Collectors returns the metrics this package records so the caller can
// register them once.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestDuration, breakerState}
}

func observe(provider, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	requestDuration.WithLabelValues(provider, op, status).Observe(time.Since(start).Seconds())
}

// ObserveImage records an image generation call made outside a Breaker.
func ObserveImage(provider string, start time.Time, err error) {
	observe(provider, "image", start, err)
}
