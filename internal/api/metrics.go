package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts gateway calls.
	// Labels: method, outcome (2xx, 3xx, 4xx, 5xx, transport)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karmafeed",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Requests sent through the session gateway",
	}, []string{"method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karmafeed",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Round-trip latency of gateway requests",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})

	csrfBootstraps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "karmafeed",
		Subsystem: "gateway",
		Name:      "csrf_bootstraps_total",
		Help:      "GET requests issued only to obtain the anti-forgery cookie",
	})
)

func outcomeLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
