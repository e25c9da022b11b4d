package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(syncRequestsTotal, syncLatencyMs, httpRequestsTotal) }

var syncRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sync_requests_total",
		Help: "Sync analysis requests by outcome (hit, miss, or error kind).",
	},
	[]string{"outcome"},
)

var syncLatencyMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "sync_request_latency_ms",
		Help:    "End-to-end sync dispatch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 400, 800, 1600},
	},
)

var httpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	},
	[]string{"route", "status"},
)

func ObserveSyncRequest(outcome string, d time.Duration) {
	syncRequestsTotal.WithLabelValues(norm(outcome)).Inc()
	syncLatencyMs.Observe(float64(d / time.Millisecond))
}

func IncHTTPRequest(route, status string) {
	httpRequestsTotal.WithLabelValues(route, status).Inc()
}
