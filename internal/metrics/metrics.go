// Package metrics provides Prometheus metrics for navigation requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation records navigation outcomes and latency.
type Navigation struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewNavigation creates the navigation collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewNavigation(reg prometheus.Registerer) *Navigation {
	n := &Navigation{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aslm_navigation_requests_total",
				Help: "Total navigation requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aslm_navigation_duration_seconds",
				Help:    "Time from issuing a navigation request to its outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(n.requests, n.duration)
	}
	return n
}

// ObserveNavigation records one finished navigation request.
func (n *Navigation) ObserveNavigation(outcome string, d time.Duration) {
	n.requests.WithLabelValues(outcome).Inc()
	n.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler returns the metrics HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
