package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	t.Run("canonicalises training names", func(t *testing.T) {
		s, err := NewSchema([]string{"Rainfall_mm", "Slope_Angle", "Soil_Type_Sand"})
		require.NoError(t, err)
		assert.Equal(t, []string{FieldRainfall, FieldSlope, FieldSoilSand}, s.Names())
		assert.Equal(t, 3, s.Len())
	})

	tests := []struct {
		name  string
		names []string
	}{
		{"empty", nil},
		{"unknown feature", []string{"rainfall_mm", "elevation_m"}},
		{"categorical soil is not numeric", []string{"soil_type"}},
		{"duplicate after canonicalisation", []string{"rainfall_mm", "Rainfall_mm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.names)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
		})
	}
}

func TestSchema_NamesIsACopy(t *testing.T) {
	s, err := NewSchema(FeatureFields)
	require.NoError(t, err)

	names := s.Names()
	names[0] = "mutated"
	assert.Equal(t, FieldRainfall, s.Names()[0])
}

func TestBuildFeatureVector(t *testing.T) {
	obs := Observation{
		RainfallMM:         250,
		SlopeAngle:         42,
		SoilSaturation:     0.85,
		VegetationCover:    0.25,
		EarthquakeActivity: true,
		ProximityToWater:   0.1,
		SoilType:           SoilSand,
	}

	t.Run("training order", func(t *testing.T) {
		s, err := NewSchema(FeatureFields)
		require.NoError(t, err)

		vec, err := BuildFeatureVector(obs, s)
		require.NoError(t, err)
		assert.Equal(t, FeatureVector{250, 42, 0.85, 0.25, 1, 0.1, 0, 1, 0}, vec)
	})

	t.Run("schema order wins over field order", func(t *testing.T) {
		s, err := NewSchema([]string{"soil_type_sand", "proximity_to_water", "rainfall_mm"})
		require.NoError(t, err)

		vec, err := BuildFeatureVector(obs, s)
		require.NoError(t, err)
		assert.Equal(t, FeatureVector{1, 0.1, 250}, vec)
	})

	t.Run("length equals schema length", func(t *testing.T) {
		s, err := NewSchema(FeatureFields[:4])
		require.NoError(t, err)

		vec, err := BuildFeatureVector(obs, s)
		require.NoError(t, err)
		assert.Len(t, vec, s.Len())
	})

	t.Run("zero schema", func(t *testing.T) {
		_, err := BuildFeatureVector(obs, Schema{})
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("invalid observation", func(t *testing.T) {
		s, err := NewSchema(FeatureFields)
		require.NoError(t, err)

		bad := obs
		bad.SoilType = "clay"
		_, err = BuildFeatureVector(bad, s)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, FieldSoilCategory, fe.Field)

		bad = obs
		bad.SlopeAngle = 120
		_, err = BuildFeatureVector(bad, s)
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, FieldSlope, fe.Field)
	})
}
