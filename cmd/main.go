package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	grpcapi "call-outcome-service/internal/api/grpc"
	"call-outcome-service/internal/app"
	"call-outcome-service/internal/config"
	httpapi "call-outcome-service/internal/http"
	"call-outcome-service/internal/observability"
)

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	grpcServer := grpcapi.NewServer(application.Metrics)
	obsServer := observability.NewServer(":"+cfg.Service.MetricsPort, prometheus.DefaultGatherer, application.Ready)
	obsServer.Start()

	// Without the sentiment lexicon every outcome would be wrong; refuse to start.
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	grpcServer.SetServing(true)

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return application.Consumer.Run(gctx)
	})
	g.Go(func() error {
		return application.Outcomes.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		application.SetReady(false)
		grpcServer.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Observability server shutdown error")
		}
		return nil
	})

	log.Info().
		Str("grpcPort", cfg.Service.GRPCPort).
		Str("httpPort", cfg.Service.HTTPPort).
		Str("metricsPort", cfg.Service.MetricsPort).
		Bool("kafkaEnabled", cfg.Kafka.Enabled).
		Msg("Call outcome service started")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Service stopped with error")
	}
	application.Shutdown()
}
