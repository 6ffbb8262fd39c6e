// Package domain models landslide risk observations and the scoring pipeline
// that turns them into a risk tier.
//
// # Observations
//
// An observation is one set of environmental readings for a single site.
// Every field is required; nothing is defaulted:
//
//	rainfall_mm          millimetres, >= 0
//	slope_angle          degrees, 0–90
//	soil_saturation      fraction, 0–1
//	vegetation_cover     fraction, 0–1
//	earthquake_activity  0 or 1 (booleans accepted)
//	proximity_to_water   kilometres, >= 0
//	soil_type            gravel | sand | silt
//
// Clients historically send the soil type one-hot encoded as
// soil_type_gravel, soil_type_sand and soil_type_silt, with exactly one set
// to 1. Both encodings are accepted; [Observation] stores the categorical
// value so a contradictory combination cannot be represented once parsed.
//
// Field names are matched case-insensitively, so the training-column
// spelling ("Rainfall_mm", "Soil_Type_Sand") and the lower-case spelling are
// interchangeable. Unrecognised keys are ignored.
//
// # Feature Vectors
//
// The classifier was trained on a fixed column order, the schema. The
// schema is shipped with the model bundle and is the only source of
// ordering; [BuildFeatureVector] projects an observation into it. A schema
// name that does not resolve to an observation field is an error, never a
// silent zero.
//
// # Scoring
//
// [Engine.Score] runs four stages:
//
//	A  base = classifier probability of the positive (landslide) class
//	B  rule_score = sum of threshold bonuses (amplified mode only)
//	C  final = min(base + rule_score, 0.99); risk_percent = round(final*100, 2)
//	D  tier: risk_percent >= 70 HIGH, >= 40 MEDIUM, otherwise LOW
//
// Threshold bonuses stack within a field. Heavy rain above 300 mm triggers
// both the 150 mm and the 300 mm bonus:
//
//	rainfall_mm        > 150  +0.15    > 300   +0.25
//	slope_angle        > 35   +0.15    > 60    +0.25
//	soil_saturation    > 0.6  +0.15    > 0.85  +0.25
//	vegetation_cover   < 0.3  +0.10
//	proximity_to_water < 2    +0.10
//
// The tier is derived from the rounded percentage, so 69.996 rounds to 70.00
// and is HIGH. See [RoundPercent].
//
// # Errors
//
// Bad input surfaces as [*FieldError] naming the field. Classifier failures
// surface as [*ClassifierError]. A bundle whose schema and classifier
// disagree is a [*ConfigurationError], reported at startup.
package domain
