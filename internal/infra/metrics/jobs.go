package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationJobsTotal, dispatchTotal, staleRedispatchTotal)
}

var (
	generationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_processed_total",
			Help: "Generation jobs processed by the worker, labeled by status.",
		},
		[]string{"status"}, // completed, failed, skipped
	)

	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_dispatch_total",
			Help: "Job hand-offs to the generation queue, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	staleRedispatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_stale_redispatch_total",
			Help: "Processing jobs re-dispatched by the reconciler.",
		},
	)
)

func IncGenerationJob(status string) {
	generationJobsTotal.WithLabelValues(norm(status)).Inc()
}

func IncDispatch(outcome string) {
	dispatchTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncStaleRedispatch() { staleRedispatchTotal.Inc() }
