package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Canonical observation field names.
const (
	FieldRainfall     = "rainfall_mm"
	FieldSlope        = "slope_angle"
	FieldSaturation   = "soil_saturation"
	FieldVegetation   = "vegetation_cover"
	FieldEarthquake   = "earthquake_activity"
	FieldProximity    = "proximity_to_water"
	FieldSoilGravel   = "soil_type_gravel"
	FieldSoilSand     = "soil_type_sand"
	FieldSoilSilt     = "soil_type_silt"
	FieldSoilCategory = "soil_type"
)

// FeatureFields lists the numeric observation fields in training-column order.
var FeatureFields = []string{
	FieldRainfall,
	FieldSlope,
	FieldSaturation,
	FieldVegetation,
	FieldEarthquake,
	FieldProximity,
	FieldSoilGravel,
	FieldSoilSand,
	FieldSoilSilt,
}

// SoilType is the categorical soil classification of a site.
type SoilType string

const (
	SoilGravel SoilType = "gravel"
	SoilSand   SoilType = "sand"
	SoilSilt   SoilType = "silt"
)

// soilIndicators maps each one-hot field to the soil type it encodes.
var soilIndicators = []struct {
	field string
	soil  SoilType
}{
	{FieldSoilGravel, SoilGravel},
	{FieldSoilSand, SoilSand},
	{FieldSoilSilt, SoilSilt},
}

// ParseSoilType accepts gravel, sand or silt in any case.
func ParseSoilType(s string) (SoilType, error) {
	switch st := SoilType(strings.ToLower(strings.TrimSpace(s))); st {
	case SoilGravel, SoilSand, SoilSilt:
		return st, nil
	default:
		return "", &FieldError{Field: FieldSoilCategory, Reason: fmt.Sprintf("unknown soil type %q", s)}
	}
}

// Observation is one set of environmental readings for a site.
type Observation struct {
	RainfallMM         float64  `json:"rainfall_mm"`
	SlopeAngle         float64  `json:"slope_angle"`
	SoilSaturation     float64  `json:"soil_saturation"`
	VegetationCover    float64  `json:"vegetation_cover"`
	EarthquakeActivity bool     `json:"earthquake_activity"`
	ProximityToWater   float64  `json:"proximity_to_water"`
	SoilType           SoilType `json:"soil_type"`
}

// CanonicalFieldName resolves a wire key to its canonical field name.
// Matching ignores case and surrounding whitespace.
func CanonicalFieldName(key string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(key))
	if name == FieldSoilCategory {
		return name, true
	}
	for _, f := range FeatureFields {
		if f == name {
			return name, true
		}
	}
	return "", false
}

// Field returns the numeric value the classifier sees for a canonical field
// name. Booleans and soil indicators encode as 0 or 1.
func (o Observation) Field(name string) (float64, bool) {
	switch name {
	case FieldRainfall:
		return o.RainfallMM, true
	case FieldSlope:
		return o.SlopeAngle, true
	case FieldSaturation:
		return o.SoilSaturation, true
	case FieldVegetation:
		return o.VegetationCover, true
	case FieldEarthquake:
		return boolToFloat(o.EarthquakeActivity), true
	case FieldProximity:
		return o.ProximityToWater, true
	case FieldSoilGravel:
		return boolToFloat(o.SoilType == SoilGravel), true
	case FieldSoilSand:
		return boolToFloat(o.SoilType == SoilSand), true
	case FieldSoilSilt:
		return boolToFloat(o.SoilType == SoilSilt), true
	default:
		return 0, false
	}
}

// Validate checks every field against its declared range.
func (o Observation) Validate() error {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{FieldRainfall, o.RainfallMM, 0, math.Inf(1)},
		{FieldSlope, o.SlopeAngle, 0, 90},
		{FieldSaturation, o.SoilSaturation, 0, 1},
		{FieldVegetation, o.VegetationCover, 0, 1},
		{FieldProximity, o.ProximityToWater, 0, math.Inf(1)},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &FieldError{Field: c.field, Reason: "must be a finite number"}
		}
		if c.value < c.min || c.value > c.max {
			return &FieldError{Field: c.field, Reason: rangeReason(c.min, c.max)}
		}
	}
	if _, err := ParseSoilType(string(o.SoilType)); err != nil {
		return err
	}
	return nil
}

func rangeReason(lo, hi float64) string {
	if math.IsInf(hi, 1) {
		return fmt.Sprintf("must be >= %g", lo)
	}
	return fmt.Sprintf("must be between %g and %g", lo, hi)
}

// ParseObservation builds an Observation from a flat field-name → value
// mapping, as decoded from a request body. Numbers may be float64, ints or
// json.Number; flags may be booleans or the numbers 0 and 1.
func ParseObservation(fields map[string]any) (Observation, error) {
	values := make(map[string]any, len(fields))
	for key, v := range fields {
		name, ok := CanonicalFieldName(key)
		if !ok {
			continue
		}
		if _, dup := values[name]; dup {
			return Observation{}, &FieldError{Field: name, Reason: "supplied more than once"}
		}
		values[name] = v
	}

	var (
		obs Observation
		err error
	)
	if obs.RainfallMM, err = requireNumber(values, FieldRainfall); err != nil {
		return Observation{}, err
	}
	if obs.SlopeAngle, err = requireNumber(values, FieldSlope); err != nil {
		return Observation{}, err
	}
	if obs.SoilSaturation, err = requireNumber(values, FieldSaturation); err != nil {
		return Observation{}, err
	}
	if obs.VegetationCover, err = requireNumber(values, FieldVegetation); err != nil {
		return Observation{}, err
	}
	if obs.EarthquakeActivity, err = requireFlag(values, FieldEarthquake); err != nil {
		return Observation{}, err
	}
	if obs.ProximityToWater, err = requireNumber(values, FieldProximity); err != nil {
		return Observation{}, err
	}
	if obs.SoilType, err = parseSoil(values); err != nil {
		return Observation{}, err
	}

	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// parseSoil resolves the soil type from the one-hot indicators, the
// categorical field, or both when they agree.
func parseSoil(values map[string]any) (SoilType, error) {
	var fromCategory SoilType
	if raw, ok := values[FieldSoilCategory]; ok {
		s, isString := raw.(string)
		if !isString {
			return "", &FieldError{Field: FieldSoilCategory, Reason: "must be a string"}
		}
		st, err := ParseSoilType(s)
		if err != nil {
			return "", err
		}
		fromCategory = st
	}

	present := 0
	for _, ind := range soilIndicators {
		if _, ok := values[ind.field]; ok {
			present++
		}
	}
	if present == 0 {
		if fromCategory != "" {
			return fromCategory, nil
		}
		return "", missingField(FieldSoilGravel)
	}

	var set []SoilType
	for _, ind := range soilIndicators {
		on, err := requireFlag(values, ind.field)
		if err != nil {
			return "", err
		}
		if on {
			set = append(set, ind.soil)
		}
	}

	switch {
	case len(set) == 0:
		return "", &FieldError{Field: FieldSoilCategory, Reason: "exactly one soil type indicator must be 1, got none"}
	case len(set) > 1:
		return "", &FieldError{Field: FieldSoilCategory, Reason: fmt.Sprintf("soil type indicators are mutually exclusive, got %v", set)}
	case fromCategory != "" && fromCategory != set[0]:
		return "", &FieldError{Field: FieldSoilCategory, Reason: fmt.Sprintf("%q contradicts indicator for %q", fromCategory, set[0])}
	}
	return set[0], nil
}

func requireNumber(values map[string]any, name string) (float64, error) {
	raw, ok := values[name]
	if !ok || raw == nil {
		return 0, missingField(name)
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, &FieldError{Field: name, Reason: fmt.Sprintf("must be a number, got %T", raw)}
	}
	return v, nil
}

func requireFlag(values map[string]any, name string) (bool, error) {
	raw, ok := values[name]
	if !ok || raw == nil {
		return false, missingField(name)
	}
	if b, isBool := raw.(bool); isBool {
		return b, nil
	}
	v, ok := toFloat(raw)
	if !ok {
		return false, &FieldError{Field: name, Reason: fmt.Sprintf("must be 0 or 1, got %T", raw)}
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &FieldError{Field: name, Reason: fmt.Sprintf("must be 0 or 1, got %g", v)}
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
