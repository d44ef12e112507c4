// Command testclient publishes scripted calls to Kafka so the outcome service
// can be exercised end to end without a speech pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"call-outcome-service/internal/config"
	"call-outcome-service/internal/events"
	"call-outcome-service/internal/models"
	"call-outcome-service/internal/observability/logging"
)

// scriptedCall is one simulated interaction.
type scriptedCall struct {
	Name            string
	Segments        []string
	DurationSeconds *int

	// Abandoned calls never send interaction.ended; the service classifies
	// them once idle.
	Abandoned bool
}

func seconds(v int) *int { return &v }

var scriptedCalls = []scriptedCall{
	{
		Name: "booked",
		Segments: []string{
			"Hi, I'd like to see Dr. Patel next week",
			"Sure, Tuesday at 10 works. Your appointment is booked",
			"Thank you, have a great day",
		},
		DurationSeconds: seconds(64),
	},
	{
		Name: "voicemail",
		Segments: []string{
			"Nobody picked up at the front desk",
			"I left a voicemail for the clinic",
		},
		DurationSeconds: seconds(38),
	},
	{
		Name: "no availability",
		Segments: []string{
			"I need an appointment this week",
			"I'm sorry, we have no availability until next month",
			"That is frustrating",
		},
		DurationSeconds: seconds(51),
	},
	{
		Name: "misunderstood",
		Segments: []string{
			"Sorry, I didn't catch that",
			"Could you repeat the date",
			"I did not hear you, say that again",
		},
		DurationSeconds: seconds(29),
	},
	{
		Name:            "hang up",
		Segments:        []string{"Hello?"},
		DurationSeconds: seconds(6),
	},
	{
		Name: "abandoned",
		Segments: []string{
			"Can you help me with my account",
			"I've been waiting for over an hour",
		},
		Abandoned: true,
	},
}

func main() {
	interval := flag.Duration("interval", 200*time.Millisecond, "Delay between segments")
	tenant := flag.String("tenant", "tenant-demo", "Tenant ID")
	flag.Parse()

	cfg := config.Load()
	logging.Init(logging.Config{Level: "info", Format: "console"})

	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicOutcome: cfg.Kafka.TopicOutcome,
		Principal:    "svc-call-outcome-testclient",
	})
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, call := range scriptedCalls {
		interactionID := "int-" + uuid.NewString()[:8]
		if err := publishCall(ctx, publisher, cfg.Kafka, call, interactionID, *tenant, *interval); err != nil {
			log.Fatal().Err(err).Str("call", call.Name).Msg("Failed to publish call")
		}
		log.Info().
			Str("call", call.Name).
			Str("interactionId", interactionID).
			Int("segments", len(call.Segments)).
			Msg("Scripted call published")
	}
}

func publishCall(ctx context.Context, p *events.Publisher, k config.KafkaConfig, call scriptedCall, interactionID, tenantID string, interval time.Duration) error {
	var offsetMs int64
	for i, text := range call.Segments {
		offsetMs += int64(2500 + 400*len(text)/10)
		ev := models.TranscriptFinal{
			EventType:     models.EventTypeTranscriptFinal,
			InteractionID: interactionID,
			TenantID:      tenantID,
			SegmentID:     fmt.Sprintf("%s-seg-%d", interactionID, i+1),
			Text:          text,
			Confidence:    0.92,
			AudioOffsetMs: offsetMs,
			Timestamp:     time.Now().UnixMilli(),
		}
		if err := p.Publish(ctx, k.TopicTranscriptFinal, ev.EventType, interactionID, ev); err != nil {
			return err
		}
		time.Sleep(interval)
	}

	if call.Abandoned {
		return nil
	}

	ended := models.InteractionEnded{
		EventType:       models.EventTypeInteractionEnded,
		InteractionID:   interactionID,
		TenantID:        tenantID,
		Timestamp:       time.Now().UnixMilli(),
		DurationSeconds: call.DurationSeconds,
	}
	return p.Publish(ctx, k.TopicInteractionEnded, ended.EventType, interactionID, ended)
}
