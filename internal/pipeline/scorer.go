package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/observability"
)

// EventPublisher accepts assessment events for asynchronous delivery.
type EventPublisher interface {
	Publish(ev domain.AssessmentEvent) bool
}

// Error kinds recorded in landslide_scoring_errors_total.
const (
	ErrKindField      = "field"
	ErrKindClassifier = "classifier"
	ErrKindTimeout    = "timeout"
	ErrKindInternal   = "internal"
)

// RiskScorer is the service entry point for one assessment: it parses the
// raw field mapping, runs the engine, records metrics and hands the result
// to the optional publisher.
type RiskScorer struct {
	engine    *domain.Engine
	model     domain.ModelInfo
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRiskScorer wires an engine to its observability. publisher may be nil.
func NewRiskScorer(engine *domain.Engine, model domain.ModelInfo, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *RiskScorer {
	metrics.ModelInfo.WithLabelValues(model.Name, model.Version, string(engine.Mode())).Set(1)
	return &RiskScorer{
		engine:    engine,
		model:     model,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Model identifies the loaded classifier bundle.
func (s *RiskScorer) Model() domain.ModelInfo { return s.model }

// Mode returns the engine's scoring mode.
func (s *RiskScorer) Mode() domain.Mode { return s.engine.Mode() }

// CheckReadiness implements the readiness probe. The scorer is ready once it
// has been constructed, since the bundle was validated at startup.
func (s *RiskScorer) CheckReadiness(_ context.Context) error {
	if s.engine == nil {
		return errors.New("scoring engine not loaded")
	}
	return nil
}

// Assess parses a raw field mapping and scores it.
func (s *RiskScorer) Assess(ctx context.Context, fields map[string]any) (domain.Assessment, error) {
	obs, err := domain.ParseObservation(fields)
	if err != nil {
		s.recordError(err)
		return domain.Assessment{}, err
	}
	return s.Score(ctx, obs)
}

// Score scores a typed observation.
func (s *RiskScorer) Score(ctx context.Context, obs domain.Observation) (domain.Assessment, error) {
	start := time.Now()
	a, err := s.engine.Score(ctx, obs)
	s.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := s.recordError(err)
		if kind != ErrKindField {
			s.logger.Error("scoring failed", "error", err, "kind", kind)
		}
		return domain.Assessment{}, err
	}

	s.metrics.Assessments.WithLabelValues(string(a.Level)).Inc()
	s.metrics.RiskPercent.Observe(a.RiskPercent)
	for _, rule := range a.TriggeredRules {
		s.metrics.RuleTriggers.WithLabelValues(rule).Inc()
	}

	s.logger.Debug("assessment complete",
		"risk_percent", a.RiskPercent,
		"risk_level", a.Level,
		"rule_score", a.RuleScore,
		"triggered_rules", len(a.TriggeredRules),
	)

	if s.publisher != nil {
		s.publisher.Publish(domain.NewAssessmentEvent(obs, a, s.model))
	}
	return a, nil
}

func (s *RiskScorer) recordError(err error) string {
	kind := ErrorKind(err)
	s.metrics.ScoringErrors.WithLabelValues(kind).Inc()
	return kind
}

// ErrorKind classifies a scoring error for metrics and transport mapping.
func ErrorKind(err error) string {
	var fe *domain.FieldError
	var ce *domain.ClassifierError
	switch {
	case errors.As(err, &fe):
		return ErrKindField
	case errors.Is(err, context.DeadlineExceeded):
		return ErrKindTimeout
	case errors.As(err, &ce):
		return ErrKindClassifier
	default:
		return ErrKindInternal
	}
}
