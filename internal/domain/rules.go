package domain

import "fmt"

// Rule is a single threshold bonus on a raw observation field.
type Rule struct {
	Field     string
	Threshold float64
	Above     bool // true fires on value > Threshold, false on value < Threshold
	Bonus     float64
}

// Name identifies the rule in metrics and explanations, e.g. "rainfall_mm>150".
func (r Rule) Name() string {
	op := "<"
	if r.Above {
		op = ">"
	}
	return fmt.Sprintf("%s%s%g", r.Field, op, r.Threshold)
}

// Applies reports whether the rule fires for obs. Comparisons are strict.
func (r Rule) Applies(obs Observation) bool {
	v, ok := obs.Field(r.Field)
	if !ok {
		return false
	}
	if r.Above {
		return v > r.Threshold
	}
	return v < r.Threshold
}

// AmplificationRules is the amplified-mode bonus table. Rules on the same
// field are independent, so the higher threshold stacks on the lower one.
var AmplificationRules = []Rule{
	{Field: FieldRainfall, Threshold: 150, Above: true, Bonus: 0.15},
	{Field: FieldRainfall, Threshold: 300, Above: true, Bonus: 0.25},
	{Field: FieldSlope, Threshold: 35, Above: true, Bonus: 0.15},
	{Field: FieldSlope, Threshold: 60, Above: true, Bonus: 0.25},
	{Field: FieldSaturation, Threshold: 0.6, Above: true, Bonus: 0.15},
	{Field: FieldSaturation, Threshold: 0.85, Above: true, Bonus: 0.25},
	{Field: FieldVegetation, Threshold: 0.3, Above: false, Bonus: 0.10},
	{Field: FieldProximity, Threshold: 2, Above: false, Bonus: 0.10},
}

// RuleResult is the outcome of evaluating the bonus table.
type RuleResult struct {
	Score     float64
	Triggered []string
}

// EvaluateRules sums the bonuses of every rule that fires, in table order.
func EvaluateRules(obs Observation) RuleResult {
	var res RuleResult
	for _, r := range AmplificationRules {
		if r.Applies(obs) {
			res.Score += r.Bonus
			res.Triggered = append(res.Triggered, r.Name())
		}
	}
	return res
}
