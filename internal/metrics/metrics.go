// Package metrics метрики Prometheus для HTTP и вебхуков процессора.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки вебхука.
const (
	OutcomeProcessed        = "processed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeFailed           = "failed"
)

// Metrics набор метрик приложения.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	WebhookEvents *prometheus.CounterVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notes",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notes",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notes",
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

// ObserveWebhook учитывает обработанный вебхук.
func (m *Metrics) ObserveWebhook(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}
