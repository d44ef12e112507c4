package app

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/config"
	"call-outcome-service/internal/events"
	"call-outcome-service/internal/observability/logging"
	"call-outcome-service/internal/observability/metrics"
	"call-outcome-service/internal/schema"
	"call-outcome-service/internal/sentiment"
	"call-outcome-service/internal/service/outcome"
	"call-outcome-service/internal/service/session"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Metrics     *metrics.Metrics
	Validator   *schema.Validator

	// Set by Start.
	Classifier *classifier.Classifier
	Publisher  *events.Publisher
	Outcomes   *outcome.Handler
	Consumer   *events.Consumer

	ready atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:     cfg,
		Metrics: metrics.DefaultMetrics,
	}
	a.setupLogger()

	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}
	a.Validator = v

	a.Logger.Info().
		Str("method", "New").
		Msg("Call outcome service application created")
	return a, nil
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	obs := a.Cfg.Observability
	logging.Init(logging.Config{
		Level:   obs.LogLevel,
		Format:  obs.LogFormat,
		Service: a.Cfg.Service.Name,
	})
	a.Logger = logging.WithComponent("application")

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("logFormat", obs.LogFormat).
		Str("environment", obs.Environment).
		Msg("Logger setup completed")
}

// Start provisions the sentiment lexicon and builds the classification
// pipeline. The service is not ready until Start returns nil.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Call outcome service starting")

	analyzer, err := sentiment.Provision()
	if err != nil {
		return fmt.Errorf("provision sentiment lexicon: %w", err)
	}
	startLogger.Info().Msg("Sentiment lexicon provisioned")

	a.Classifier = classifier.New(analyzer)

	k := a.Cfg.Kafka
	a.Publisher = events.New(&events.Config{
		Brokers:      k.Brokers,
		TopicOutcome: k.TopicOutcome,
		Principal:    k.Principal,
		Enabled:      k.Enabled,
		Metrics:      a.Metrics,
	})

	s := a.Cfg.Session
	a.Outcomes = outcome.NewHandler(a.Classifier, a.Publisher, outcome.Config{
		Limits: session.Limits{
			MaxSegments:        s.MaxSegments,
			MaxTranscriptBytes: s.MaxTranscriptBytes,
		},
		MaxIdle:       s.MaxIdle,
		SweepInterval: s.SweepInterval,
		EndGrace:      s.EndGrace,
		Metrics:       a.Metrics,
	})

	a.Consumer = events.NewConsumer(&events.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.GroupID,
		Topics:  []string{k.TopicTranscriptFinal, k.TopicInteractionEnded},
		Enabled: k.Enabled,
		Metrics: a.Metrics,
	}, a.Validator, a.Outcomes)

	a.SetReady(true)
	return nil
}

// Ready reports whether the service can classify.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// SetReady flips the readiness flag.
func (a *Application) SetReady(ready bool) {
	a.ready.Store(ready)
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.SetReady(false)
	if a.Consumer != nil {
		if err := a.Consumer.Close(); err != nil {
			shutdownLogger.Error().Err(err).Msg("Error closing Kafka consumer")
		}
	}
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}

	shutdownLogger.Info().Msg("Call outcome service shutting down")
}
