package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeDismissed = "dismissed"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
)

// CheckoutMetrics records payment and order placement outcomes.
type CheckoutMetrics struct {
	completions *prometheus.CounterVec
	orders      prometheus.Counter
	duration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_completions_total",
		Help: "Checkout completions by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Order rows persisted across all checkouts.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout completion in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(completions, orders, duration)
	return &CheckoutMetrics{
		completions: completions,
		orders:      orders,
		duration:    duration,
	}
}

// IncCompletion increments the completion counter for the given outcome.
func (c *CheckoutMetrics) IncCompletion(outcome string) {
	if c == nil || c.completions == nil {
		return
	}
	c.completions.WithLabelValues(normalizeOutcome(outcome)).Inc()
}

// AddOrders records n persisted order rows.
func (c *CheckoutMetrics) AddOrders(n int) {
	if c == nil || c.orders == nil || n <= 0 {
		return
	}
	c.orders.Add(float64(n))
}

// ObserveDuration records how long a completion took.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeOutcome(outcome)).Observe(duration.Seconds())
}

func normalizeOutcome(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
