package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordClassification(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordClassification("Failure", "failure", -4, -1, true, true, 0.001)
	m.RecordClassification("Success", "completion", 5, 1, false, false, 0.001)

	if got := testutil.ToFloat64(m.Classifications.WithLabelValues("Failure", "failure")); got != 1 {
		t.Errorf("expected 1 failure classification, got %v", got)
	}
	if got := testutil.ToFloat64(m.SentimentPolarity.WithLabelValues("-1")); got != 1 {
		t.Errorf("expected 1 negative polarity, got %v", got)
	}
	if got := testutil.ToFloat64(m.Penalties.WithLabelValues("duration")); got != 1 {
		t.Errorf("expected 1 duration penalty, got %v", got)
	}
	if got := testutil.ToFloat64(m.Penalties.WithLabelValues("misunderstanding")); got != 1 {
		t.Errorf("expected 1 misunderstanding penalty, got %v", got)
	}
}

func TestSessionGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSessionOpened()
	m.RecordSessionOpened()
	m.RecordSessionOpened()
	m.RecordSessionClassified("ended")
	m.RecordSessionDropped("max_segments")

	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsClassified.WithLabelValues("ended")); got != 1 {
		t.Errorf("expected 1 classified session, got %v", got)
	}
}

func TestRecordKafkaPublish(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordKafkaPublish("interaction.outcome", "interaction.outcome", nil, 0.01)
	m.RecordKafkaPublish("interaction.outcome", "interaction.outcome", errors.New("boom"), 0.01)

	if got := testutil.ToFloat64(m.KafkaPublishTotal.WithLabelValues("interaction.outcome", "interaction.outcome")); got != 2 {
		t.Errorf("expected 2 publishes, got %v", got)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("interaction.outcome", "interaction.outcome")); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
}

func TestRecordGRPCRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordGRPCRequest("/grpc.health.v1.Health/Check", "OK", 0.001)
	m.RecordGRPCRequest("/grpc.health.v1.Health/Check", "NotFound", 0.002)

	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues("/grpc.health.v1.Health/Check", "OK")); got != 1 {
		t.Errorf("expected 1 OK request, got %v", got)
	}
	if got := testutil.CollectAndCount(m.GRPCLatency); got != 1 {
		t.Errorf("expected one latency series, got %d", got)
	}
}
