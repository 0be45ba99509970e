package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cypherlabdev/hedge-signal-service/internal/cache"
	"github.com/cypherlabdev/hedge-signal-service/internal/config"
	httpHandler "github.com/cypherlabdev/hedge-signal-service/internal/handler/http"
	"github.com/cypherlabdev/hedge-signal-service/internal/logging"
	"github.com/cypherlabdev/hedge-signal-service/internal/messaging"
	"github.com/cypherlabdev/hedge-signal-service/internal/metrics"
	"github.com/cypherlabdev/hedge-signal-service/internal/service"
	hedgesignal "github.com/cypherlabdev/hedge-signal-service/pkg/signal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logCloser.Close()
	log.Logger = logger
	logger.Info().Msg("starting hedge-signal-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Redis cache
	redisCache := cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Create signal engine
	engine := hedgesignal.NewEngine(cfg.Engine.ToParams(), logger)
	logger.Info().Msg("signal engine initialized")

	signalService := service.NewSignalService(engine, redisCache, logger)

	// Kafka consumer is optional; HTTP alone serves evaluations
	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.GroupID,
			},
			engine,
			redisCache,
			logger,
		)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	} else {
		logger.Info().Msg("Kafka consumer disabled")
	}

	signalHandler := httpHandler.NewSignalHandler(signalService, logger)

	mux := http.NewServeMux()

	// Health and monitoring endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, signalService)
	})
	mux.Handle("/metrics", metrics.Handler())

	signalHandler.RegisterRoutes(mux)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Stops the consumer
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// pinger is satisfied by anything backed by the cache
type pinger interface {
	Ping(ctx context.Context) error
}

// readyHandler returns 200 if service is ready to accept traffic
func readyHandler(w http.ResponseWriter, r *http.Request, p pinger) {
	if err := p.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Redis unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
