package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scoring.
	ModelPath           string
	ScoringMode         domain.Mode
	RequestTimeout      time.Duration
	ClassifierCacheSize int

	// Assessment event publishing.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaAssessmentTopic string
	BatchSize            int
	BatchFlushInterval   time.Duration
	EventBufferSize      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mode, err := domain.ParseMode(sharedcfg.EnvOrDefault("SCORING_MODE", string(domain.ModeAmplified)))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORING_MODE: %w", err)
	}

	requestTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("REQUEST_TIMEOUT", "5s"))
	if err != nil || requestTimeout <= 0 {
		return nil, errors.New("invalid REQUEST_TIMEOUT")
	}

	cacheSize, err := parseNonNegativeInt("CLASSIFIER_CACHE_SIZE", 0)
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	bufferSize, err := parseNonNegativeInt("EVENT_BUFFER_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid KAFKA_ENABLED")
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:           sharedcfg.EnvOrDefault("MODEL_PATH", "data/model/landslide_model.json"),
		ScoringMode:         mode,
		RequestTimeout:      requestTimeout,
		ClassifierCacheSize: cacheSize,

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "landslide-assessments"),
		BatchSize:            batchSize,
		BatchFlushInterval:   flushInterval,
		EventBufferSize:      bufferSize,
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaAssessmentTopic == "" {
			return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required")
		}
		if cfg.EventBufferSize == 0 {
			return nil, errors.New("EVENT_BUFFER_SIZE must be positive when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseNonNegativeInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", name)
	}
	return n, nil
}
