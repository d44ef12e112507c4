// Command outcomeviewer shows published call outcomes in the browser.
// It consumes the outcome topic and relays each event over WebSocket.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"call-outcome-service/internal/models"
	"call-outcome-service/internal/observability/logging"
)

//go:embed static/*
var staticFiles embed.FS

func consumeOutcomes(ctx context.Context, hub *Hub, brokers, topic string) {
	// Partition reader without a consumer group so every viewer sees every outcome.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-1*time.Hour)); err != nil {
		log.Warn().Err(err).Msg("Could not rewind to the last hour, reading from the current offset")
	}
	log.Info().Str("topic", topic).Msg("Consuming outcomes (last hour)")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("topic", topic).Msg("Kafka read error")
			time.Sleep(time.Second)
			continue
		}

		var event models.CallOutcome
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn().Err(err).Msg("Outcome decode failed")
			continue
		}

		log.Info().
			Str("interactionId", event.InteractionID).
			Str("label", string(event.Label)).
			Str("reason", string(event.Reason)).
			Int("finalScore", event.FinalScore).
			Msg("Outcome received")
		hub.Publish(event)
	}
}

func newMux(hub *Hub) http.Handler {
	staticFS, _ := fs.Sub(staticFiles, "static")

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", wsHandler(hub))
	return mux
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "interaction.outcome", "Call outcome topic")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console", Service: "outcome-viewer"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := newHub()
	go hub.Run(ctx)
	go consumeOutcomes(ctx, hub, *brokers, *topic)

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           newMux(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("url", "http://localhost:"+*port).
		Str("brokers", *brokers).
		Str("topic", *topic).
		Msg("Outcome viewer starting")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
