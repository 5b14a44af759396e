package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every custom metric the blog exposes
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Auth Metrics
	AuthAttemptsTotal   *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	SessionsPurgedTotal prometheus.Counter

	// Post Metrics
	PostOperationsTotal *prometheus.CounterVec

	// Queue (RabbitMQ) Metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
	EventProcessingFailed  *prometheus.CounterVec
}

// NewMetrics registers all metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Auth Metrics
		AuthAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"}, // success, invalid_credentials, validation, storage
		),

		RegistrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of registration attempts",
			},
			[]string{"outcome"},
		),

		SessionsPurgedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_sessions_purged_total",
				Help: "Total number of expired sessions removed from the store",
			},
		),

		// Post Metrics
		PostOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_operations_total",
				Help: "Total number of post write operations",
			},
			[]string{"operation", "outcome"}, // operation: create, update, delete
		),

		// Queue Metrics
		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name", "event_type"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name", "status"}, // status: success, retried, failed
		),

		EventProcessingFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_events_failed_total",
				Help: "Total number of post events that could not be recorded",
			},
			[]string{"error_type"},
		),
	}
}

// RecordAuthAttempt is safe on a nil receiver so callers without metrics can skip wiring.
func (m *Metrics) RecordAuthAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPostOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.PostOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordPublished(queueName, eventType string) {
	if m == nil {
		return
	}
	m.QueueMessagesPublished.WithLabelValues(queueName, eventType).Inc()
}

func (m *Metrics) RecordConsumed(queueName, status string) {
	if m == nil {
		return
	}
	m.QueueMessagesConsumed.WithLabelValues(queueName, status).Inc()
}

func (m *Metrics) RecordEventFailure(errorType string) {
	if m == nil {
		return
	}
	m.EventProcessingFailed.WithLabelValues(errorType).Inc()
}

func (m *Metrics) RecordSessionsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsPurgedTotal.Add(float64(n))
}
