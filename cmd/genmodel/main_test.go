package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Logistic(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"-type", "logistic"}, &stdout))

	b, err := model.Decode(&stdout)
	require.NoError(t, err)
	assert.Equal(t, domain.ModelInfo{Name: "landslide-demo-logistic", Version: "demo-1"}, b.Info())
	assert.Equal(t, domain.FeatureFields, b.Schema().Names())
}

func TestRun_ForestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.json")
	require.NoError(t, run([]string{"-type", "random_forest", "-out", path}, nil))

	b, err := model.Load(path)
	require.NoError(t, err)

	p, err := b.ProbabilityOfPositive(context.Background(), domain.FeatureVector{200, 40, 0.5, 0.5, 0, 5, 1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 25.0/30.0, p, 1e-12)
}

func TestRun_UnknownType(t *testing.T) {
	assert.Error(t, run([]string{"-type", "svm"}, nil))
}

// The checked-in bundle must match what the generator produces.
func TestCheckedInBundle(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"-type", "logistic"}, &stdout))

	want, err := os.ReadFile("../../data/model/landslide_model.json")
	require.NoError(t, err)
	assert.JSONEq(t, string(want), stdout.String())
}
