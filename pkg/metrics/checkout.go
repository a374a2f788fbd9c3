package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout attempt outcomes and gateway calls.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gateway  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout session attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout session construction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	gateway := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_gateway_requests_total",
		Help: "Payment gateway session requests by provider and result.",
	}, []string{"provider", "result"})
	reg.MustRegister(attempts, duration, gateway)
	return &CheckoutMetrics{
		attempts: attempts,
		duration: duration,
		gateway:  gateway,
	}
}

// ObserveAttempt counts one checkout attempt and records how long it took.
func (m *CheckoutMetrics) ObserveAttempt(outcome string, elapsed time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.attempts.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// IncGatewayRequest counts one call to the payment provider.
func (m *CheckoutMetrics) IncGatewayRequest(provider, result string) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(provider), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
