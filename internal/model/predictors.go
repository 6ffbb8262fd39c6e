package model

import (
	"errors"
	"fmt"
	"math"
)

type scaler struct {
	mean  []float64
	scale []float64
}

func newScaler(spec ScalerSpec, n int) (*scaler, error) {
	if len(spec.Mean) != n || len(spec.Scale) != n {
		return nil, fmt.Errorf("mean has %d and scale has %d entries, want %d", len(spec.Mean), len(spec.Scale), n)
	}
	for i, s := range spec.Scale {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("scale[%d] = %v, must be positive and finite", i, s)
		}
		if math.IsNaN(spec.Mean[i]) || math.IsInf(spec.Mean[i], 0) {
			return nil, fmt.Errorf("mean[%d] = %v, must be finite", i, spec.Mean[i])
		}
	}
	return &scaler{mean: spec.Mean, scale: spec.Scale}, nil
}

// transform returns a standardised copy of x.
func (s *scaler) transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out
}

type logistic struct {
	intercept float64
	coef      []float64
}

func newLogistic(intercept float64, coef []float64, n int) (*logistic, error) {
	if len(coef) != n {
		return nil, fmt.Errorf("%d coefficients, want %d", len(coef), n)
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, errors.New("intercept must be finite")
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d must be finite", i)
		}
	}
	return &logistic{intercept: intercept, coef: coef}, nil
}

func (l *logistic) predict(x []float64) float64 {
	z := l.intercept
	for i, c := range l.coef {
		z += c * x[i]
	}
	return 1 / (1 + math.Exp(-z))
}

// forest averages the positive-class probability of its trees.
type forest struct {
	trees []tree
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	// positive is the positive-class fraction at each leaf.
	positive []float64
}

func newForest(specs []TreeSpec, n int) (*forest, error) {
	if len(specs) == 0 {
		return nil, errors.New("no trees")
	}
	f := &forest{trees: make([]tree, len(specs))}
	for i, spec := range specs {
		t, err := newTree(spec, n)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees[i] = t
	}
	return f, nil
}

// newTree checks that every internal node points at two later nodes, which
// rules out cycles, and that every leaf has usable class weights.
func newTree(spec TreeSpec, n int) (tree, error) {
	nodes := len(spec.ChildrenLeft)
	if nodes == 0 {
		return tree{}, errors.New("no nodes")
	}
	if len(spec.ChildrenRight) != nodes || len(spec.Feature) != nodes ||
		len(spec.Threshold) != nodes || len(spec.Value) != nodes {
		return tree{}, errors.New("node arrays differ in length")
	}

	t := tree{
		left:      spec.ChildrenLeft,
		right:     spec.ChildrenRight,
		feature:   spec.Feature,
		threshold: spec.Threshold,
		positive:  make([]float64, nodes),
	}
	for i := 0; i < nodes; i++ {
		l, r := spec.ChildrenLeft[i], spec.ChildrenRight[i]
		if l == -1 || r == -1 {
			if l != r {
				return tree{}, fmt.Errorf("node %d has only one child", i)
			}
			p, err := leafProbability(spec.Value[i])
			if err != nil {
				return tree{}, fmt.Errorf("node %d: %w", i, err)
			}
			t.positive[i] = p
			continue
		}
		if l <= i || l >= nodes || r <= i || r >= nodes {
			return tree{}, fmt.Errorf("node %d has children %d, %d outside (%d, %d)", i, l, r, i, nodes)
		}
		if f := spec.Feature[i]; f < 0 || f >= n {
			return tree{}, fmt.Errorf("node %d splits on feature %d, model has %d", i, f, n)
		}
		if math.IsNaN(spec.Threshold[i]) {
			return tree{}, fmt.Errorf("node %d threshold is NaN", i)
		}
	}
	return t, nil
}

func leafProbability(value []float64) (float64, error) {
	if len(value) != 2 {
		return 0, fmt.Errorf("leaf value has %d classes, want 2", len(value))
	}
	neg, pos := value[0], value[1]
	if neg < 0 || pos < 0 || math.IsNaN(neg) || math.IsNaN(pos) || math.IsInf(neg, 0) || math.IsInf(pos, 0) {
		return 0, errors.New("leaf weights must be finite and non-negative")
	}
	total := neg + pos
	if total <= 0 {
		return 0, errors.New("leaf weights sum to zero")
	}
	return pos / total, nil
}

func (t *tree) predict(x []float64) float64 {
	node := 0
	for t.left[node] != -1 {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.positive[node]
}

func (f *forest) predict(x []float64) float64 {
	var sum float64
	for i := range f.trees {
		sum += f.trees[i].predict(x)
	}
	return sum / float64(len(f.trees))
}
