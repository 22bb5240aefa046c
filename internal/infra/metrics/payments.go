package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentOpsTotal,
		authorizedAmountTotal,
		refundedAmountTotal,
		providerLatencyMs,
	)
}

var (
	paymentOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_payment_ops_total",
			Help: "Controller operations by op (authorize/commit/refund) and outcome.",
		},
		[]string{"op", "outcome"},
	)

	authorizedAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_payment_authorized_minor_total",
			Help: "Sum of authorized intent amounts in minor units, labeled by tier and currency.",
		},
		[]string{"tier", "currency"},
	)

	refundedAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_payment_refunded_minor_total",
			Help: "Sum of refunded amounts in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	providerLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_provider_latency_ms",
			Help:    "Payment provider call latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 6000},
		},
		[]string{"provider", "call", "success"},
	)
)

func IncPaymentOp(op, outcome string) {
	paymentOpsTotal.WithLabelValues(norm(op), norm(outcome)).Inc()
}

func AddAuthorized(tier, currency string, amount int64) {
	authorizedAmountTotal.WithLabelValues(norm(tier), norm(currency)).Add(float64(amount))
}

func AddRefunded(currency string, amount int64) {
	refundedAmountTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func ObserveProviderCall(provider, call string, latencyMs int64, success bool) {
	providerLatencyMs.WithLabelValues(norm(provider), norm(call), boolLabel(success)).Observe(float64(latencyMs))
}
