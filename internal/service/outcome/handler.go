// Package outcome assembles per-interaction transcripts from transcript
// events and publishes a call outcome when the interaction ends or goes idle.
package outcome

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/models"
	"call-outcome-service/internal/observability/logging"
	"call-outcome-service/internal/observability/metrics"
	"call-outcome-service/internal/service/session"
)

// Publisher delivers call outcomes.
type Publisher interface {
	PublishOutcome(ctx context.Context, key string, event any) error
}

// Config tunes session buffering and the idle sweep.
type Config struct {
	Limits        session.Limits
	MaxIdle       time.Duration
	SweepInterval time.Duration
	Metrics       *metrics.Metrics

	// EndGrace is how long an ended interaction keeps accepting segments
	// before it is classified. Zero classifies on the end event.
	EndGrace time.Duration

	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Limits:        session.DefaultLimits(),
		MaxIdle:       2 * time.Minute,
		SweepInterval: 15 * time.Second,
		EndGrace:      3 * time.Second,
	}
}

// Handler keeps one session per interaction. Terminal sessions are kept
// until they go idle so late or redelivered segments are ignored.
// Safe for concurrent use by the consumer and the sweeper.
type Handler struct {
	classifier *classifier.Classifier
	publisher  Publisher
	cfg        Config
	metrics    *metrics.Metrics
	now        func() time.Time
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewHandler creates an outcome handler.
func NewHandler(c *classifier.Classifier, publisher Publisher, cfg Config) *Handler {
	h := &Handler{
		classifier: c,
		publisher:  publisher,
		cfg:        cfg,
		metrics:    cfg.Metrics,
		now:        cfg.Now,
		log:        logging.WithComponent("outcome"),
		sessions:   make(map[string]*session.Session),
	}
	if h.metrics == nil {
		h.metrics = metrics.DefaultMetrics
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// OnTranscriptFinal buffers one final segment.
func (h *Handler) OnTranscriptFinal(ctx context.Context, ev models.TranscriptFinal) error {
	now := h.now()
	s := h.session(ev.InteractionID, ev.TenantID, now)
	logger := logging.WithInteraction(h.log, ev.InteractionID, ev.TenantID)

	err := s.Append(session.Segment{
		ID:            ev.SegmentID,
		Text:          ev.Text,
		AudioOffsetMs: ev.AudioOffsetMs,
	}, now)

	var limitErr *session.LimitError
	switch {
	case err == nil:
		logger.Debug().
			Str("segmentId", ev.SegmentID).
			Int64("audioOffsetMs", ev.AudioOffsetMs).
			Msg("Segment buffered")
	case errors.Is(err, session.ErrDuplicateSegment):
		logger.Debug().Str("segmentId", ev.SegmentID).Msg("Duplicate segment ignored")
	case errors.As(err, &limitErr):
		h.metrics.RecordLimitExceeded(limitErr.Limit)
		h.metrics.RecordSessionDropped("limit_" + limitErr.Limit)
		logger.Warn().Err(err).Msg("Session DROPPED, no outcome will be published")
	default:
		logger.Debug().
			Err(err).
			Str("segmentId", ev.SegmentID).
			Str("state", s.State().String()).
			Msg("Segment ignored")
	}
	return nil
}

// OnInteractionEnded records the end of an interaction. Transcript and end
// events travel on different topics, so segments may still arrive after it;
// the outcome is published by Sweep once EndGrace has passed. An interaction
// with no buffered segments is still classified.
func (h *Handler) OnInteractionEnded(ctx context.Context, ev models.InteractionEnded) error {
	now := h.now()
	s := h.session(ev.InteractionID, ev.TenantID, now)
	logger := logging.WithInteraction(h.log, ev.InteractionID, ev.TenantID)
	if s.State() != session.StateOpen {
		logger.Debug().
			Str("state", s.State().String()).
			Msg("Interaction end ignored")
		return nil
	}

	first := s.MarkEnded(ev.DurationSeconds, now)
	if h.cfg.EndGrace > 0 {
		if first {
			logger.Debug().
				Dur("grace", h.cfg.EndGrace).
				Msg("Interaction ended, waiting for in-flight segments")
		}
		return nil
	}

	err := h.finish(ctx, s, models.TriggerEnded, now)
	if errors.Is(err, session.ErrAlreadyClassified) || errors.Is(err, session.ErrSessionClosed) {
		return nil
	}
	return err
}

type dueSession struct {
	session *session.Session
	trigger string
}

// Sweep classifies ended sessions whose grace window has passed and open
// sessions idle for at least MaxIdle, and forgets idle terminal ones.
// It returns the number of outcomes published.
func (h *Handler) Sweep(ctx context.Context, now time.Time) int {
	var due []dueSession

	h.mu.Lock()
	for id, s := range h.sessions {
		switch s.State() {
		case session.StateOpen:
			if since, ended := s.EndedFor(now); ended {
				if since >= h.cfg.EndGrace {
					due = append(due, dueSession{s, models.TriggerEnded})
				}
			} else if s.IdleFor(now) >= h.cfg.MaxIdle {
				due = append(due, dueSession{s, models.TriggerIdle})
			}
		case session.StateClosed, session.StateDropped:
			if s.IdleFor(now) >= h.cfg.MaxIdle {
				delete(h.sessions, id)
			}
		}
	}
	h.mu.Unlock()

	published := 0
	for _, d := range due {
		if err := h.finish(ctx, d.session, d.trigger, now); err == nil {
			published++
		}
	}
	return published
}

// Run sweeps periodically until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	interval := h.cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}
	if g := h.cfg.EndGrace; g > 0 && g < interval {
		interval = g
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := h.Sweep(ctx, h.now()); n > 0 {
				h.log.Info().Int("outcomes", n).Msg("Swept sessions classified")
			}
		}
	}
}

// ActiveSessions returns the number of tracked sessions, terminal ones included.
func (h *Handler) ActiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) session(interactionID, tenantID string, now time.Time) *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[interactionID]; ok {
		return s
	}
	s := session.New(interactionID, tenantID, h.cfg.Limits, now)
	h.sessions[interactionID] = s
	h.metrics.RecordSessionOpened()
	return s
}

func (h *Handler) finish(ctx context.Context, s *session.Session, trigger string, now time.Time) error {
	tr, err := s.Finish(now)
	if err != nil {
		// Another trigger got there first.
		return err
	}

	start := time.Now()
	res := h.classifier.Classify(tr.Text, tr.DurationSeconds)
	h.metrics.RecordClassification(
		string(res.Label), string(res.Reason), res.Score, res.Debug.Sentiment,
		res.Debug.MisunderstandCount >= classifier.MisunderstandThreshold,
		res.Debug.DurationPenaltyApplied == 1,
		time.Since(start).Seconds(),
	)

	ev := models.CallOutcome{
		EventType:       models.EventTypeCallOutcome,
		OutcomeID:       uuid.NewString(),
		InteractionID:   s.InteractionID(),
		TenantID:        s.TenantID(),
		Timestamp:       now.UnixMilli(),
		Label:           res.Label,
		Reason:          res.Reason,
		FinalScore:      res.Score,
		SegmentCount:    tr.SegmentCount,
		DurationSeconds: tr.DurationSeconds,
		Trigger:         trigger,
		Debug:           res.Debug,
	}

	logger := logging.WithOutcome(h.log, s.InteractionID(), string(res.Label), string(res.Reason))
	if err := h.publisher.PublishOutcome(ctx, s.InteractionID(), ev); err != nil {
		s.Drop()
		h.metrics.RecordSessionDropped("publish")
		logger.Error().Err(err).Str("trigger", trigger).Msg("Failed to publish outcome")
		return err
	}

	s.Close()
	h.metrics.RecordSessionClassified(trigger)
	logger.Info().
		Str("outcomeId", ev.OutcomeID).
		Str("trigger", trigger).
		Int("finalScore", res.Score).
		Int("segments", tr.SegmentCount).
		Msg("Call outcome published")
	return nil
}
