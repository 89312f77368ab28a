// Package metrics объявляет Prometheus-метрики приложения и HTTP middleware для их сбора.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "testprep_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GradingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_gradings_total",
			Help: "Total number of answer submissions by outcome",
		},
		[]string{"outcome"},
	)

	GradingScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "testprep_grading_score_percent",
			Help:    "Distribution of exam scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	SubscriptionsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_subscriptions_granted_total",
			Help: "Total number of subscriptions created or extended",
		},
		[]string{"kind", "source"},
	)

	SubscriptionsDeactivatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_subscriptions_deactivated_total",
			Help: "Total number of subscriptions moved to inactive",
		},
		[]string{"kind", "reason"},
	)

	PromoRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_promo_redemptions_total",
			Help: "Total number of promo code redemptions",
		},
		[]string{"status"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testprep_events_consumed_total",
			Help: "Total number of broker events handled by the notifier",
		},
		[]string{"routing_key", "status"},
	)
)

// Результаты проверки ответов.
const (
	OutcomeGraded         = "graded"
	OutcomeNoSubscription = "no_subscription"
	OutcomeNotFound       = "not_found"
	OutcomeInvalid        = "invalid"
	OutcomeError          = "error"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordGrading учитывает попытку; score записывается только для успешной проверки.
func RecordGrading(outcome string, score float64) {
	GradingsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeGraded {
		GradingScore.Observe(score)
	}
}

func RecordSubscriptionGranted(kind, source string) {
	SubscriptionsGrantedTotal.WithLabelValues(kind, source).Inc()
}

func RecordSubscriptionDeactivated(kind, reason string) {
	SubscriptionsDeactivatedTotal.WithLabelValues(kind, reason).Inc()
}

func RecordPromoRedemption(status string) {
	PromoRedemptionsTotal.WithLabelValues(status).Inc()
}

func RecordEventConsumed(routingKey, status string) {
	EventsConsumedTotal.WithLabelValues(routingKey, status).Inc()
}
