package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(piiRedactionsTotal) }

var piiRedactionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pii_redactions_total",
		Help: "Number of PII spans redacted, labeled by category.",
	},
	[]string{"category"},
)

func AddRedactions(category string, n int) {
	if n <= 0 {
		return
	}
	piiRedactionsTotal.WithLabelValues(norm(category)).Add(float64(n))
}
