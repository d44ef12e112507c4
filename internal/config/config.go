package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration is the full service configuration, read from the environment.
type Configuration struct {
	Service       ServiceConfig
	Kafka         KafkaConfig
	Session       SessionConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name        string
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

type KafkaConfig struct {
	Enabled               bool
	Brokers               []string
	GroupID               string
	TopicTranscriptFinal  string
	TopicInteractionEnded string
	TopicOutcome          string
	Principal             string
}

// SessionConfig bounds the per-interaction transcript buffers.
type SessionConfig struct {
	MaxSegments        int
	MaxTranscriptBytes int64
	MaxIdle            time.Duration
	SweepInterval      time.Duration
	EndGrace           time.Duration
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	Environment string
}

// Load reads the configuration. Unparsable values fall back to defaults.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-call-outcome")
	env := os.Getenv("ENV")

	logFormat := "json"
	if env == "dev" {
		logFormat = "console"
	}

	return &Configuration{
		Service: ServiceConfig{
			Name:        envOrDefault("SERVICE_NAME", "call-outcome-service"),
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50052"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Kafka: KafkaConfig{
			Enabled:               envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:               envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:               envOrDefault("KAFKA_GROUP_ID", "call-outcome-service"),
			TopicTranscriptFinal:  envOrDefault("KAFKA_TOPIC_TRANSCRIPT_FINAL", "interaction.transcript.final"),
			TopicInteractionEnded: envOrDefault("KAFKA_TOPIC_INTERACTION_ENDED", "interaction.ended"),
			TopicOutcome:          envOrDefault("KAFKA_TOPIC_OUTCOME", "interaction.outcome"),
			Principal:             envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Session: SessionConfig{
			MaxSegments:        envOrDefaultInt("SESSION_MAX_SEGMENTS", 2000),
			MaxTranscriptBytes: envOrDefaultInt64("SESSION_MAX_TRANSCRIPT_BYTES", 1024*1024),
			MaxIdle:            envOrDefaultDuration("SESSION_MAX_IDLE", 2*time.Minute),
			SweepInterval:      envOrDefaultDuration("SESSION_SWEEP_INTERVAL", 15*time.Second),
			EndGrace:           envOrDefaultDuration("SESSION_END_GRACE", 3*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", logFormat),
			Environment: env,
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
