package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSoilField = "soil_type"

func validFields() map[string]any {
	return map[string]any{
		"rainfall_mm":         120.0,
		"slope_angle":         25.0,
		"soil_saturation":     0.5,
		"vegetation_cover":    0.5,
		"earthquake_activity": 0.0,
		"proximity_to_water":  5.0,
		"soil_type_gravel":    1.0,
		"soil_type_sand":      0.0,
		"soil_type_silt":      0.0,
	}
}

func TestParseObservation(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		obs, err := ParseObservation(validFields())
		require.NoError(t, err)
		assert.Equal(t, Observation{
			RainfallMM:       120,
			SlopeAngle:       25,
			SoilSaturation:   0.5,
			VegetationCover:  0.5,
			ProximityToWater: 5,
			SoilType:         SoilGravel,
		}, obs)
	})

	t.Run("training column spelling", func(t *testing.T) {
		obs, err := ParseObservation(map[string]any{
			"Rainfall_mm":         250.0,
			"Slope_Angle":         42.0,
			"Soil_Saturation":     0.85,
			"Vegetation_Cover":    0.25,
			"Earthquake_Activity": 1.0,
			"Proximity_to_Water":  0.1,
			"Soil_Type_Gravel":    0.0,
			"Soil_Type_Sand":      1.0,
			"Soil_Type_Silt":      0.0,
		})
		require.NoError(t, err)
		assert.Equal(t, 250.0, obs.RainfallMM)
		assert.True(t, obs.EarthquakeActivity)
		assert.Equal(t, SoilSand, obs.SoilType)
	})

	t.Run("json numbers and booleans", func(t *testing.T) {
		fields := validFields()
		fields["rainfall_mm"] = json.Number("310.5")
		fields["earthquake_activity"] = true
		fields["slope_angle"] = 30

		obs, err := ParseObservation(fields)
		require.NoError(t, err)
		assert.Equal(t, 310.5, obs.RainfallMM)
		assert.Equal(t, 30.0, obs.SlopeAngle)
		assert.True(t, obs.EarthquakeActivity)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		fields := validFields()
		fields["station_id"] = "KX-12"
		_, err := ParseObservation(fields)
		require.NoError(t, err)
	})

	t.Run("categorical soil type", func(t *testing.T) {
		fields := validFields()
		delete(fields, "soil_type_gravel")
		delete(fields, "soil_type_sand")
		delete(fields, "soil_type_silt")
		fields[testSoilField] = "Silt"

		obs, err := ParseObservation(fields)
		require.NoError(t, err)
		assert.Equal(t, SoilSilt, obs.SoilType)
	})

	t.Run("categorical agreeing with indicators", func(t *testing.T) {
		fields := validFields()
		fields[testSoilField] = "gravel"
		obs, err := ParseObservation(fields)
		require.NoError(t, err)
		assert.Equal(t, SoilGravel, obs.SoilType)
	})
}

func TestParseObservation_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
	}{
		{"missing slope", func(f map[string]any) { delete(f, "slope_angle") }, FieldSlope},
		{"missing rainfall", func(f map[string]any) { delete(f, "rainfall_mm") }, FieldRainfall},
		{"null proximity", func(f map[string]any) { f["proximity_to_water"] = nil }, FieldProximity},
		{"string rainfall", func(f map[string]any) { f["rainfall_mm"] = "120" }, FieldRainfall},
		{"negative rainfall", func(f map[string]any) { f["rainfall_mm"] = -1.0 }, FieldRainfall},
		{"slope above 90", func(f map[string]any) { f["slope_angle"] = 91.0 }, FieldSlope},
		{"saturation above 1", func(f map[string]any) { f["soil_saturation"] = 1.2 }, FieldSaturation},
		{"vegetation below 0", func(f map[string]any) { f["vegetation_cover"] = -0.1 }, FieldVegetation},
		{"negative proximity", func(f map[string]any) { f["proximity_to_water"] = -3.0 }, FieldProximity},
		{"NaN saturation", func(f map[string]any) { f["soil_saturation"] = math.NaN() }, FieldSaturation},
		{"infinite rainfall", func(f map[string]any) { f["rainfall_mm"] = math.Inf(1) }, FieldRainfall},
		{"earthquake not a flag", func(f map[string]any) { f["earthquake_activity"] = 2.0 }, FieldEarthquake},
		{"two soil indicators", func(f map[string]any) { f["soil_type_sand"] = 1.0 }, FieldSoilCategory},
		{"no soil indicator", func(f map[string]any) { f["soil_type_gravel"] = 0.0 }, FieldSoilCategory},
		{"partial soil indicators", func(f map[string]any) { delete(f, "soil_type_silt") }, FieldSoilSilt},
		{"soil indicator not a flag", func(f map[string]any) { f["soil_type_sand"] = 0.5 }, FieldSoilSand},
		{"no soil at all", func(f map[string]any) {
			delete(f, "soil_type_gravel")
			delete(f, "soil_type_sand")
			delete(f, "soil_type_silt")
		}, FieldSoilGravel},
		{"unknown categorical", func(f map[string]any) { f[testSoilField] = "clay" }, FieldSoilCategory},
		{"categorical contradicts indicators", func(f map[string]any) { f[testSoilField] = "sand" }, FieldSoilCategory},
		{"duplicate spelling", func(f map[string]any) { f["Slope_Angle"] = 30.0 }, FieldSlope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(fields)

			_, err := ParseObservation(fields)
			require.Error(t, err)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestObservation_Field(t *testing.T) {
	obs := Observation{
		RainfallMM:         1,
		SlopeAngle:         2,
		SoilSaturation:     0.3,
		VegetationCover:    0.4,
		EarthquakeActivity: true,
		ProximityToWater:   6,
		SoilType:           SoilSilt,
	}

	want := map[string]float64{
		FieldRainfall:   1,
		FieldSlope:      2,
		FieldSaturation: 0.3,
		FieldVegetation: 0.4,
		FieldEarthquake: 1,
		FieldProximity:  6,
		FieldSoilGravel: 0,
		FieldSoilSand:   0,
		FieldSoilSilt:   1,
	}
	for name, v := range want {
		got, ok := obs.Field(name)
		assert.True(t, ok, name)
		assert.Equal(t, v, got, name)
	}

	_, ok := obs.Field(FieldSoilCategory)
	assert.False(t, ok)
}

func TestParseSoilType(t *testing.T) {
	st, err := ParseSoilType(" GRAVEL ")
	require.NoError(t, err)
	assert.Equal(t, SoilGravel, st)

	_, err = ParseSoilType("loam")
	require.Error(t, err)
}
