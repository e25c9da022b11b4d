package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, cacheSingleflightShared) }

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Tracks cache hits, misses and store errors.",
	},
	[]string{"cache", "result"}, // e.g., cache="result", result="hit"
)

var cacheSingleflightShared = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "cache_singleflight_shared_total",
		Help: "Callers that received a result computed by another in-flight caller.",
	},
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncSingleflightShared() {
	cacheSingleflightShared.Inc()
}
