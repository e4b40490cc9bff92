package subscription

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements Metrics using Prometheus.
type PrometheusMetrics struct {
	webhookEventsTotal *prometheus.CounterVec
	tierChangesTotal   *prometheus.CounterVec
	checkoutsTotal     *prometheus.CounterVec
	apiCallsTotal      *prometheus.CounterVec
	apiCallDuration    *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the billing collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		webhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Total number of Stripe webhook events received.",
		}, []string{"event_type", "outcome"}),

		tierChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "tier_changes_total",
			Help:      "Total number of entitlement tier changes.",
		}, []string{"from_tier", "to_tier", "source"}),

		checkoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "checkout_sessions_total",
			Help:      "Total number of checkout sessions created.",
		}, []string{"tier"}),

		apiCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "api_calls_total",
			Help:      "Total number of Stripe API calls.",
		}, []string{"operation", "status"}),

		apiCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "api_call_duration_seconds",
			Help:      "Duration of Stripe API calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *PrometheusMetrics) WebhookEvent(eventType, outcome string) {
	m.webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *PrometheusMetrics) TierChange(from, to Tier, source string) {
	m.tierChangesTotal.WithLabelValues(string(from), string(to), source).Inc()
}

func (m *PrometheusMetrics) CheckoutStarted(tier Tier) {
	m.checkoutsTotal.WithLabelValues(string(tier)).Inc()
}

func (m *PrometheusMetrics) APICall(operation, status string, d time.Duration) {
	m.apiCallsTotal.WithLabelValues(operation, status).Inc()
	m.apiCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}
