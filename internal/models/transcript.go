// Package models defines the event payloads consumed and produced by the service.
package models

import "call-outcome-service/internal/classifier"

// Event types on the wire.
const (
	EventTypeTranscriptFinal  = "interaction.transcript.final"
	EventTypeInteractionEnded = "interaction.ended"
	EventTypeCallOutcome      = "interaction.outcome"
)

// Outcome triggers.
const (
	TriggerEnded = "ended"
	TriggerIdle  = "idle"
)

// Envelope is the subset of fields shared by every inbound event.
type Envelope struct {
	EventType     string `json:"eventType"`
	InteractionID string `json:"interactionId"`
}

// TranscriptFinal is one finalised transcript segment of a call.
type TranscriptFinal struct {
	EventType     string  `json:"eventType"`
	InteractionID string  `json:"interactionId"`
	TenantID      string  `json:"tenantId"`
	Timestamp     int64   `json:"timestamp"`
	SegmentID     string  `json:"segmentId"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	AudioOffsetMs int64   `json:"audioOffsetMs"`
}

// InteractionEnded signals that a call is over.
type InteractionEnded struct {
	EventType       string `json:"eventType"`
	InteractionID   string `json:"interactionId"`
	TenantID        string `json:"tenantId"`
	Timestamp       int64  `json:"timestamp"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
}

// CallOutcome is the classification published for a finished call.
type CallOutcome struct {
	EventType       string            `json:"eventType"`
	OutcomeID       string            `json:"outcomeId"`
	InteractionID   string            `json:"interactionId"`
	TenantID        string            `json:"tenantId"`
	Timestamp       int64             `json:"timestamp"`
	Label           classifier.Label  `json:"label"`
	Reason          classifier.Reason `json:"reason"`
	FinalScore      int               `json:"finalScore"`
	SegmentCount    int               `json:"segmentCount"`
	DurationSeconds *int              `json:"durationSeconds,omitempty"`
	Trigger         string            `json:"trigger"`
	Debug           classifier.Debug  `json:"debug"`
}
