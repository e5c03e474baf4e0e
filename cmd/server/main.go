package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailtrace/internal/platform/config"
	"tailtrace/internal/platform/httpserver"
	"tailtrace/internal/platform/logger"
	platformredis "tailtrace/internal/platform/redis"
	"tailtrace/internal/research"
	"tailtrace/internal/research/cache"
	"tailtrace/internal/research/escalate"
	"tailtrace/internal/research/handler"
	"tailtrace/internal/research/metrics"
	"tailtrace/internal/research/providers"
	httpapi "tailtrace/internal/transport/http"
	"tailtrace/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the research packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var store cache.Cache
	if redisClient != nil {
		store = cache.NewRedis(redisClient.Client)
		log.Info("using redis cache")
	} else {
		memory, err := cache.NewMemory(0)
		if err != nil {
			log.Error("memory cache init failed", "error", err)
			os.Exit(1)
		}
		store = memory
		log.Info("using in-memory cache")
	}

	runCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var sink escalate.Sink
	var kafkaSink *escalate.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = escalate.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		sink = kafkaSink
		log.Info("publishing escalations to kafka", "topic", cfg.Kafka.Topic)
	} else {
		chSink := escalate.NewChannelSink(64, log)
		worker := escalate.NewWorker(chSink.Inbox(), escalate.LogHandler(log), log)
		go worker.Run(runCtx)
		sink = chSink
		log.Info("publishing escalations to in-process worker")
	}

	m := metrics.New()

	registry := providers.WithBreaker(
		providers.NewFAARegistry(cfg.Providers.RegistryBaseURL, cfg.Providers.FastTimeout),
		circuit.New("faa-registry", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		log,
	)
	flightTrack := providers.WithBreaker(
		providers.NewFlightTracker(cfg.Providers.FlightTrackBaseURL, cfg.Providers.FlightTrackAPIKey, cfg.Providers.SlowTimeout),
		circuit.New("flight-tracker", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		log,
	)
	webSearch := providers.WithBreaker(
		providers.NewWebSearch(cfg.Providers.WebSearchBaseURL, cfg.Providers.WebSearchAPIKey, cfg.Providers.SlowTimeout),
		circuit.New("web-search", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		log,
	)

	machine := research.NewMachine(registry, flightTrack, webSearch, store, sink, log, m, research.Config{
		MergeThreshold: cfg.MergeThreshold,
		Scorer: research.ScorerConfig{
			SufficientThreshold: cfg.SufficientThreshold,
			EscalationFloor:     cfg.EscalationFloor,
		},
		FastTimeout: cfg.Providers.FastTimeout,
		SlowTimeout: cfg.Providers.SlowTimeout,
		EvidenceTTL: cfg.EvidenceTTL,
		ResultTTL:   cfg.ResultTTL,
	})

	researchHandler := handler.New(machine, log, cfg.RunTimeout)
	health := handler.NewHealth(registry, flightTrack, webSearch)
	router := httpapi.NewRouter(researchHandler, health)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting tailtrace", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	stopWorkers()
	if kafkaSink != nil {
		if err := kafkaSink.Close(ctx); err != nil {
			log.Warn("kafka sink close failed", "error", err)
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
