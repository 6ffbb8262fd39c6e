package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ModelInfo identifies the classifier bundle that produced an assessment.
type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// AssessmentEvent is the record published for each successful assessment.
type AssessmentEvent struct {
	ID              string      `json:"id"`
	Observation     Observation `json:"observation"`
	RiskPercent     float64     `json:"risk_percent"`
	RiskLevel       RiskLevel   `json:"risk_level"`
	BaseProbability float64     `json:"base_probability"`
	RuleScore       float64     `json:"rule_score"`
	TriggeredRules  []string    `json:"triggered_rules,omitempty"`
	Mode            Mode        `json:"mode"`
	Model           string      `json:"model"`
	ModelVersion    string      `json:"model_version"`
	AssessedAt      time.Time   `json:"assessed_at"`
}

// NewAssessmentEvent pairs an observation with its assessment and stamps it
// with the package clock.
func NewAssessmentEvent(obs Observation, a Assessment, model ModelInfo) AssessmentEvent {
	return AssessmentEvent{
		ID:              generateID(obs, a.Mode, model),
		Observation:     obs,
		RiskPercent:     a.RiskPercent,
		RiskLevel:       a.Level,
		BaseProbability: a.BaseProbability,
		RuleScore:       a.RuleScore,
		TriggeredRules:  a.TriggeredRules,
		Mode:            a.Mode,
		Model:           model.Name,
		ModelVersion:    model.Version,
		AssessedAt:      clock.Now().UTC(),
	}
}

// generateID hashes everything that determines the score, so the same
// observation scored by the same model and mode always shares a key and
// compacted topics keep only the latest copy.
func generateID(obs Observation, mode Mode, model ModelInfo) string {
	input := fmt.Sprintf("%s|%s|%s|%g|%g|%g|%g|%t|%g|%s",
		model.Name, model.Version, mode,
		obs.RainfallMM, obs.SlopeAngle, obs.SoilSaturation, obs.VegetationCover,
		obs.EarthquakeActivity, obs.ProximityToWater, obs.SoilType)
	hash := sha256.Sum256([]byte(input))
	return "assess-" + hex.EncodeToString(hash[:8])
}
