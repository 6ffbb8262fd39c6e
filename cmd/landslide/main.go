package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/landslide-risk-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/landslide-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/landslide-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/landslide-risk-service/internal/config"
	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/model"
	"github.com/couchcryptid/landslide-risk-service/internal/observability"
	"github.com/couchcryptid/landslide-risk-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	bundle, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Error("failed to load model bundle", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	info := bundle.Info()
	logger.Info("model bundle loaded",
		"path", cfg.ModelPath,
		"name", info.Name,
		"version", info.Version,
		"features", bundle.Schema().String(),
	)

	// Optional classifier cache (CLASSIFIER_CACHE_SIZE > 0).
	var classifier domain.Classifier = bundle
	if cfg.ClassifierCacheSize > 0 {
		classifier = cache.NewCachedClassifier(bundle, cfg.ClassifierCacheSize, metrics)
		logger.Info("classifier cache enabled", "cache_size", cfg.ClassifierCacheSize)
	}

	engine, err := domain.NewEngine(classifier, bundle.Schema(), cfg.ScoringMode)
	if err != nil {
		logger.Error("failed to build scoring engine", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The dispatcher outlives the HTTP server so in-flight requests can still publish.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	var wg sync.WaitGroup

	// Optional assessment event publishing (KAFKA_ENABLED).
	var publisher pipeline.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		dispatcher := pipeline.NewDispatcher(writer, pipeline.DispatcherConfig{
			BatchSize:         cfg.BatchSize,
			FlushInterval:     cfg.BatchFlushInterval,
			BufferSize:        cfg.EventBufferSize,
			FinalFlushTimeout: cfg.ShutdownTimeout,
		}, logger, metrics)
		publisher = dispatcher

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dispatcher.Run(dispatchCtx); err != nil {
				logger.Error("dispatcher error", "error", err)
			}
		}()
		logger.Info("assessment publishing enabled", "topic", cfg.KafkaAssessmentTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("assessment publishing disabled")
	}

	scorer := pipeline.NewRiskScorer(engine, info, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, scorer, scorer, cfg.RequestTimeout, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	stopDispatch()
	wg.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
