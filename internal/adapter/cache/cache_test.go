package cache

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks for cache tests ---

type countingClassifier struct {
	calls int
	p     float64
	err   error
}

func (m *countingClassifier) ProbabilityOfPositive(_ context.Context, _ domain.FeatureVector) (float64, error) {
	m.calls++
	return m.p, m.err
}

type widthClassifier struct {
	countingClassifier
	n int
}

func (m *widthClassifier) NumFeatures() int { return m.n }

// --- CachedClassifier tests ---

func TestCachedClassifier_CacheHit(t *testing.T) {
	inner := &countingClassifier{p: 0.42}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedClassifier(inner, 10, metrics)

	p1, err := cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.42, p1, 1e-12)

	p2, err := cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.42, p2, 1e-12)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ClassifierCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ClassifierCache.WithLabelValues("miss")), 0)
}

func TestCachedClassifier_DifferentVectorsMiss(t *testing.T) {
	inner := &countingClassifier{p: 0.1}
	cached := NewCachedClassifier(inner, 10, nil)

	_, _ = cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1, 2, 3})
	_, _ = cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1, 2, 3.0000001})
	_, _ = cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{0})
	_, _ = cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{math.Copysign(0, -1)})

	assert.Equal(t, 4, inner.calls)
	assert.Equal(t, 4, cached.Len())
}

func TestCachedClassifier_ErrorsNotCached(t *testing.T) {
	inner := &countingClassifier{err: &domain.ClassifierError{Err: errors.New("boom")}}
	cached := NewCachedClassifier(inner, 10, nil)

	_, err := cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1})
	var ce *domain.ClassifierError
	require.ErrorAs(t, err, &ce)

	inner.err = nil
	inner.p = 0.7
	p, err := cached.ProbabilityOfPositive(context.Background(), domain.FeatureVector{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, p, 1e-12)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifier_NumFeatures(t *testing.T) {
	assert.Equal(t, 9, NewCachedClassifier(&widthClassifier{n: 9}, 1, nil).NumFeatures())
	assert.Equal(t, 0, NewCachedClassifier(&countingClassifier{}, 1, nil).NumFeatures())
}

func TestCachedClassifier_WidthlessInnerAcceptedByEngine(t *testing.T) {
	schema, err := domain.NewSchema(domain.FeatureFields)
	require.NoError(t, err)

	_, err = domain.NewEngine(&countingClassifier{}, schema, domain.ModePlain)
	require.NoError(t, err)

	_, err = domain.NewEngine(NewCachedClassifier(&countingClassifier{}, 4, nil), schema, domain.ModePlain)
	assert.NoError(t, err, "wrapping must not invent a width")

	_, err = domain.NewEngine(NewCachedClassifier(&widthClassifier{n: 3}, 4, nil), schema, domain.ModePlain)
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr, "a declared width is still checked")
}

func TestCachedClassifier_DrivesEngine(t *testing.T) {
	inner := &widthClassifier{countingClassifier: countingClassifier{p: 0.5}, n: 9}
	cached := NewCachedClassifier(inner, 16, nil)
	schema, err := domain.NewSchema(domain.FeatureFields)
	require.NoError(t, err)

	e, err := domain.NewEngine(cached, schema, domain.ModePlain)
	require.NoError(t, err)

	obs := domain.Observation{RainfallMM: 10, SlopeAngle: 5, SoilSaturation: 0.1, VegetationCover: 0.9, ProximityToWater: 8, SoilType: domain.SoilSand}
	for range 3 {
		a, err := e.Score(context.Background(), obs)
		require.NoError(t, err)
		assert.Equal(t, 50.00, a.RiskPercent)
	}
	assert.Equal(t, 1, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string](3)

	c.put("a", "A")
	c.put("b", "B")

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")
	c.put("c", "C") // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")

	c.get("a")

	// "b" is now least recently used.
	c.put("c", "C")

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[float64](2)

	c.put("a", 0.1)
	c.put("a", 0.2)

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.InDelta(t, 0.2, result, 0)
	assert.Len(t, c.entries, 1)
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := newLRUCache[int](0)
	c.put("a", 1)
	c.put("b", 2)

	_, ok := c.get("a")
	assert.False(t, ok)
	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
