package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsFinishedTotal, jobItemsTotal, jobsSubmittedTotal) }

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_finished_total",
		Help: "Total number of async jobs that reached a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'partial', 'failed'
)

var jobItemsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_items_total",
		Help: "Job items processed, labeled by outcome.",
	},
	[]string{"outcome"},
)

var jobsSubmittedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "jobs_submitted_total",
		Help: "Total number of async jobs accepted.",
	},
)

func IncJobFinished(status string) {
	jobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncJobItem(outcome string) {
	jobItemsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncJobSubmitted() {
	jobsSubmittedTotal.Inc()
}

var workerQueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "worker_queue_depth",
		Help: "Tasks waiting in the job worker queue.",
	},
)

func init() { register(workerQueueDepth) }

func SetWorkerQueueDepth(n int) {
	workerQueueDepth.Set(float64(n))
}
