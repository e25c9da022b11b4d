package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		backendCallsLatencyMs,
		backendRetriesTotal,
		backendInputTokens,
	)
}

var (
	backendCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_calls_latency_ms",
			Help:    "Inference backend call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "success"},
	)

	backendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_retries_total",
			Help: "Single retries issued after a transient backend failure.",
		},
		[]string{"provider", "kind"},
	)

	backendInputTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_input_tokens_total",
			Help: "Sum of prompt tokens sent per provider.",
		},
		[]string{"provider"},
	)
)

func ObserveBackendCall(provider string, latency time.Duration, success bool) {
	backendCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latency / time.Millisecond))
}

func IncBackendRetry(provider, kind string) {
	backendRetriesTotal.WithLabelValues(norm(provider), norm(kind)).Inc()
}

func AddBackendInputTokens(provider string, n int) {
	backendInputTokens.WithLabelValues(norm(provider)).Add(float64(n))
}
