package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
)

func init() { register(jobStorePool, jobStoreOps, jobStoreLatency) }

var (
	jobStorePool = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "job_store_pool_conns",
			Help: "Connections in the job store pool by state.",
		},
		[]string{"state"}, // total|idle|in_use
	)
	jobStoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_store_ops_total",
			Help: "Job store operations by operation and result.",
		},
		[]string{"op", "result"}, // result: ok|not_found|rejected|error
	)
	jobStoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_store_op_latency_ms",
			Help:    "Job store operation latency in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"op"},
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	jobStorePool.WithLabelValues("total").Set(float64(total))
	jobStorePool.WithLabelValues("idle").Set(float64(idle))
	jobStorePool.WithLabelValues("in_use").Set(float64(inUse))
}

// ObserveJobStoreOp records one job store call. Errors that are not store
// failures, such as a mutator refusing a transition, count as rejected.
func ObserveJobStoreOp(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrJobStore):
		result = "error"
	default:
		result = "rejected"
	}
	jobStoreOps.WithLabelValues(op, result).Inc()
	jobStoreLatency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}
