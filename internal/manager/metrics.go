package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	dagRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tensord",
			Subsystem: "dag",
			Name:      "runs_total",
			Help:      "Total DAGRUN requests by outcome",
		},
		[]string{"status"},
	)

	dagRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tensord",
			Subsystem: "dag",
			Name:      "model_run_duration_seconds",
			Help:      "Backend execution time of MODELRUN commands",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	persistErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tensord",
			Subsystem: "dag",
			Name:      "persist_errors_total",
			Help:      "PERSIST keys that could not be committed",
		},
		[]string{"reason"},
	)

	inflightRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tensord",
			Subsystem: "dag",
			Name:      "inflight_runs",
			Help:      "DAGRUN requests being processed",
		},
	)
)

func init() {
	prometheus.MustRegister(dagRunsTotal, dagRunDuration, persistErrorsTotal, inflightRuns)
}
