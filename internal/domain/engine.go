package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxProbability caps the combined probability; risk never reads 100%.
const MaxProbability = 0.99

// Classifier returns the probability of the positive (landslide) class for
// a feature vector in schema order.
type Classifier interface {
	ProbabilityOfPositive(ctx context.Context, v FeatureVector) (float64, error)
}

// FeatureCounter is implemented by classifiers that know their input width.
// NewEngine uses it to reject a schema of the wrong length at startup. A
// width of 0 or less means unknown and is not checked.
type FeatureCounter interface {
	NumFeatures() int
}

// Mode selects whether rule amplification is applied.
type Mode string

const (
	ModePlain     Mode = "plain"
	ModeAmplified Mode = "amplified"
)

// ParseMode accepts "plain" or "amplified" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeAmplified:
		return m, nil
	default:
		return "", fmt.Errorf("unknown scoring mode %q (want plain or amplified)", s)
	}
}

// RiskLevel is the discrete risk tier.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// LevelFor maps a rounded risk percentage to its tier.
func LevelFor(percent float64) RiskLevel {
	switch {
	case percent >= 70:
		return RiskHigh
	case percent >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Advisory is the operator-facing message shown for the tier.
func (l RiskLevel) Advisory() string {
	switch l {
	case RiskHigh:
		return "CRITICAL LANDSLIDE WARNING - Immediate evacuation required"
	case RiskMedium:
		return "MODERATE RISK - Continuous monitoring advised"
	case RiskLow:
		return "LOW RISK - Conditions stable"
	default:
		return ""
	}
}

// Assessment is the scored result for one observation.
type Assessment struct {
	RiskPercent     float64
	Level           RiskLevel
	BaseProbability float64
	RuleScore       float64
	TriggeredRules  []string
	Mode            Mode
}

// RoundPercent converts a probability to a percentage rounded to two
// decimals. Formatting rounds the exact binary value half-to-even, which
// matches the rounding the risk thresholds were calibrated against.
func RoundPercent(p float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(p*100, 'f', 2, 64), 64)
	return v
}

// Combine applies the clamp, rounding and tier stages to a base probability
// and a rule result.
func Combine(base float64, rules RuleResult, mode Mode) Assessment {
	final := math.Min(base+rules.Score, MaxProbability)
	pct := RoundPercent(final)
	return Assessment{
		RiskPercent:     pct,
		Level:           LevelFor(pct),
		BaseProbability: base,
		RuleScore:       rules.Score,
		TriggeredRules:  rules.Triggered,
		Mode:            mode,
	}
}

// Engine scores observations against a loaded classifier. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	classifier Classifier
	schema     Schema
	mode       Mode
}

// NewEngine wires a classifier to its schema. A schema whose length differs
// from the classifier's input width is a ConfigurationError.
func NewEngine(classifier Classifier, schema Schema, mode Mode) (*Engine, error) {
	if classifier == nil {
		return nil, &ConfigurationError{Reason: "classifier is nil"}
	}
	if schema.Len() == 0 {
		return nil, &ConfigurationError{Reason: "feature schema is empty"}
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, &ConfigurationError{Reason: "invalid mode", Err: err}
	}
	if fc, ok := classifier.(FeatureCounter); ok {
		if n := fc.NumFeatures(); n > 0 && n != schema.Len() {
			return nil, &ConfigurationError{Reason: fmt.Sprintf(
				"classifier expects %d features, schema lists %d", n, schema.Len())}
		}
	}
	return &Engine{classifier: classifier, schema: schema, mode: mode}, nil
}

// Mode returns the configured scoring mode.
func (e *Engine) Mode() Mode { return e.mode }

// Schema returns the feature schema.
func (e *Engine) Schema() Schema { return e.schema }

// Score runs the full pipeline for one observation.
func (e *Engine) Score(ctx context.Context, obs Observation) (Assessment, error) {
	vec, err := BuildFeatureVector(obs, e.schema)
	if err != nil {
		return Assessment{}, err
	}

	base, err := e.classifier.ProbabilityOfPositive(ctx, vec)
	if err != nil {
		var ce *ClassifierError
		if errors.As(err, &ce) {
			return Assessment{}, err
		}
		return Assessment{}, &ClassifierError{Err: err}
	}
	if math.IsNaN(base) || base < 0 || base > 1 {
		return Assessment{}, &ClassifierError{Err: fmt.Errorf("probability %v outside [0, 1]", base)}
	}

	var rules RuleResult
	if e.mode == ModeAmplified {
		rules = EvaluateRules(obs)
	}
	return Combine(base, rules, e.mode), nil
}
