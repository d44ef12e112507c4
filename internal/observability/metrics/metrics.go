// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "call_outcome"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Classification metrics
	Classifications   *prometheus.CounterVec
	ClassifyLatency   prometheus.Histogram
	FinalScore        prometheus.Histogram
	SentimentPolarity *prometheus.CounterVec
	Penalties         *prometheus.CounterVec

	// Inbound event metrics
	EventsConsumed *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec

	// Session metrics
	SessionsActive       prometheus.Gauge
	SessionsClassified   *prometheus.CounterVec
	SessionsDropped      *prometheus.CounterVec
	SessionLimitExceeded *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Batch metrics
	BatchRows *prometheus.CounterVec

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
	GRPCLatency  *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of transcripts classified",
		}, []string{"label", "reason"}),
		ClassifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_latency_seconds",
			Help:      "Time spent classifying one transcript",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		FinalScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Distribution of final heuristic scores",
			Buckets:   []float64{-12, -8, -5, -3, -1, 0, 1, 3, 5, 8, 12},
		}),
		SentimentPolarity: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_polarity_total",
			Help:      "Sentiment polarity class per classified transcript",
		}, []string{"polarity"}),
		Penalties: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "penalties_total",
			Help:      "Flat penalties applied while scoring",
		}, []string{"penalty"}),

		EventsConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Total number of inbound events consumed",
		}, []string{"event_type"}),
		EventsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Total number of inbound events skipped",
		}, []string{"event_type", "reason"}),

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of interactions currently buffering transcript segments",
		}),
		SessionsClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_classified_total",
			Help:      "Total number of interactions classified",
		}, []string{"trigger"}),
		SessionsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_dropped_total",
			Help:      "Total number of interactions dropped without an outcome",
		}, []string{"reason"}),
		SessionLimitExceeded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_limit_exceeded_total",
			Help:      "Total number of times session limits were exceeded",
		}, []string{"limit_type"}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		BatchRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Total number of batch rows classified",
		}, []string{"label"}),

		GRPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of unary gRPC calls by method and status code",
		}, []string{"method", "code"}),
		GRPCLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_latency_seconds",
			Help:      "Unary gRPC call latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method"}),
	}
}

// RecordClassification records one classifier result.
func (m *Metrics) RecordClassification(label, reason string, score, polarity int, misunderstandPenalty, durationPenalty bool, latencySeconds float64) {
	m.Classifications.WithLabelValues(label, reason).Inc()
	m.ClassifyLatency.Observe(latencySeconds)
	m.FinalScore.Observe(float64(score))
	m.SentimentPolarity.WithLabelValues(strconv.Itoa(polarity)).Inc()
	if misunderstandPenalty {
		m.Penalties.WithLabelValues("misunderstanding").Inc()
	}
	if durationPenalty {
		m.Penalties.WithLabelValues("duration").Inc()
	}
}

// RecordEventConsumed records an inbound event accepted for processing.
func (m *Metrics) RecordEventConsumed(eventType string) {
	m.EventsConsumed.WithLabelValues(eventType).Inc()
}

// RecordEventRejected records an inbound event that was skipped.
func (m *Metrics) RecordEventRejected(eventType, reason string) {
	m.EventsRejected.WithLabelValues(eventType, reason).Inc()
}

// RecordSessionOpened records a new interaction session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsActive.Inc()
}

// RecordSessionClassified records a session that produced an outcome.
func (m *Metrics) RecordSessionClassified(trigger string) {
	m.SessionsActive.Dec()
	m.SessionsClassified.WithLabelValues(trigger).Inc()
}

// RecordSessionDropped records a session abandoned without an outcome.
func (m *Metrics) RecordSessionDropped(reason string) {
	m.SessionsActive.Dec()
	m.SessionsDropped.WithLabelValues(reason).Inc()
}

// RecordLimitExceeded records when a session limit is exceeded.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.SessionLimitExceeded.WithLabelValues(limitType).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordBatchRow records one classified batch row.
func (m *Metrics) RecordBatchRow(label string) {
	m.BatchRows.WithLabelValues(label).Inc()
}

// RecordGRPCRequest records one unary gRPC call.
func (m *Metrics) RecordGRPCRequest(method, code string, latencySeconds float64) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
	m.GRPCLatency.WithLabelValues(method).Observe(latencySeconds)
}
