package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics counts subscription transitions, webhook deliveries and
// checkout sessions.
type BillingMetrics interface {
	IncSubscriptionChange(plan, action string)
	IncWebhookEvent(eventType, status string)
	IncCheckoutSession(plan string)
}

type billingMetrics struct {
	subscriptionChanges *prometheus.CounterVec
	webhookEvents       *prometheus.CounterVec
	checkoutSessions    *prometheus.CounterVec
}

// NewBillingMetrics registers the billing collectors on the registry.
func NewBillingMetrics(registry *prometheus.Registry) BillingMetrics {
	return &billingMetrics{
		subscriptionChanges: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_changes_total",
				Help: "The total number of subscription changes by plan and action",
			},
			[]string{"plan", "action"},
		),
		webhookEvents: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "The total number of processed webhook events by type and status",
			},
			[]string{"type", "status"},
		),
		checkoutSessions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_created_total",
				Help: "The total number of created checkout sessions by plan",
			},
			[]string{"plan"},
		),
	}
}

func (m *billingMetrics) IncSubscriptionChange(plan, action string) {
	m.subscriptionChanges.WithLabelValues(plan, action).Inc()
}

func (m *billingMetrics) IncWebhookEvent(eventType, status string) {
	m.webhookEvents.WithLabelValues(eventType, status).Inc()
}

func (m *billingMetrics) IncCheckoutSession(plan string) {
	m.checkoutSessions.WithLabelValues(plan).Inc()
}

// NopBillingMetrics is used in tests.
type NopBillingMetrics struct{}

func (NopBillingMetrics) IncSubscriptionChange(string, string) {}
func (NopBillingMetrics) IncWebhookEvent(string, string)       {}
func (NopBillingMetrics) IncCheckoutSession(string)            {}
