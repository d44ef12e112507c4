package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"call-outcome-service/internal/models"
	"call-outcome-service/internal/observability/metrics"
	"call-outcome-service/internal/schema"
)

// Errors for inbound payloads that are skipped.
var (
	ErrUnsupportedEvent = errors.New("unsupported event type")
	ErrInvalidPayload   = errors.New("invalid event payload")
)

// Handler receives decoded inbound events.
type Handler interface {
	OnTranscriptFinal(ctx context.Context, ev models.TranscriptFinal) error
	OnInteractionEnded(ctx context.Context, ev models.InteractionEnded) error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
	Enabled bool
	Metrics *metrics.Metrics
}

// Consumer reads transcript and interaction events from Kafka and hands them
// to a Handler.
type Consumer struct {
	reader    *kafka.Reader
	handler   Handler
	validator *schema.Validator
	metrics   *metrics.Metrics
	enabled   bool
}

// NewConsumer creates a consumer-group reader over cfg.Topics. When disabled,
// Run only waits for cancellation.
func NewConsumer(cfg *ConsumerConfig, validator *schema.Validator, handler Handler) *Consumer {
	c := &Consumer{
		handler:   handler,
		validator: validator,
		metrics:   metrics.DefaultMetrics,
	}
	if cfg == nil {
		log.Info().Msg("Kafka consumer disabled (nil config)")
		return c
	}
	if cfg.Metrics != nil {
		c.metrics = cfg.Metrics
	}
	if !cfg.Enabled || len(cfg.Brokers) == 0 || len(cfg.Topics) == 0 {
		log.Info().Msg("Kafka consumer disabled")
		return c
	}

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c.enabled = true

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("groupId", cfg.GroupID).
		Strs("topics", cfg.Topics).
		Msg("Kafka consumer initialized")
	return c
}

// Run consumes until ctx is cancelled. Offsets are committed after the
// handler returns, whether or not it succeeded; bad payloads are skipped.
func (c *Consumer) Run(ctx context.Context) error {
	if !c.enabled || c.reader == nil {
		<-ctx.Done()
		return nil
	}

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Kafka fetch failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.Dispatch(ctx, msg.Value); err != nil {
			log.Warn().
				Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Event not processed")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("Kafka commit failed")
		}
	}
}

// Dispatch decodes one raw event and routes it by eventType.
func (c *Consumer) Dispatch(ctx context.Context, raw []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.metrics.RecordEventRejected("unknown", "decode")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch env.EventType {
	case models.EventTypeTranscriptFinal:
		var ev models.TranscriptFinal
		if err := c.decode(schema.KindTranscriptFinal, env.EventType, raw, &ev); err != nil {
			return err
		}
		c.metrics.RecordEventConsumed(env.EventType)
		return c.handler.OnTranscriptFinal(ctx, ev)

	case models.EventTypeInteractionEnded:
		var ev models.InteractionEnded
		if err := c.decode(schema.KindInteractionEnded, env.EventType, raw, &ev); err != nil {
			return err
		}
		c.metrics.RecordEventConsumed(env.EventType)
		return c.handler.OnInteractionEnded(ctx, ev)

	default:
		c.metrics.RecordEventRejected(env.EventType, "unsupported")
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, env.EventType)
	}
}

func (c *Consumer) decode(kind, eventType string, raw []byte, into any) error {
	if c.validator != nil {
		if err := c.validator.Validate(kind, raw); err != nil {
			c.metrics.RecordEventRejected(eventType, "schema")
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	if err := json.Unmarshal(raw, into); err != nil {
		c.metrics.RecordEventRejected(eventType, "decode")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Close closes the Kafka reader.
func (c *Consumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
