package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationTokensTotal, generationCallsTotal, generationLatencyMs)
}

var (
	generationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_tokens_total",
			Help: "Model tokens consumed, split into prompt and completion.",
		},
		[]string{"provider", "model", "direction"},
	)

	generationCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_calls_total",
			Help: "Calls to the content model by provider and success.",
		},
		[]string{"provider", "success"},
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_call_latency_ms",
			Help:    "Content model call latency in milliseconds.",
			Buckets: []float64{250, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000},
		},
		[]string{"provider", "model"},
	)
)

func ObserveGeneration(provider, model string, tokensIn, tokensOut int, latencyMs int64, success bool) {
	p, m := norm(provider), norm(model)
	generationCallsTotal.WithLabelValues(p, boolLabel(success)).Inc()
	generationLatencyMs.WithLabelValues(p, m).Observe(float64(latencyMs))
	if tokensIn > 0 {
		generationTokensTotal.WithLabelValues(p, m, "prompt").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		generationTokensTotal.WithLabelValues(p, m, "completion").Add(float64(tokensOut))
	}
}
