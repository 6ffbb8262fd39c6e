// Package model loads trained landslide classifiers from JSON bundles.
//
// A bundle carries everything the scoring engine needs from the offline
// training job: the feature schema, an optional standard scaler and the
// fitted classifier itself (a random forest or a logistic regression).
// Bundles are validated in full when loaded and are immutable afterwards, so
// one Bundle is shared by every request.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
)

// Supported classifier types.
const (
	TypeRandomForest = "random_forest"
	TypeLogistic     = "logistic"
)

// File is the on-disk bundle layout.
type File struct {
	Name       string         `json:"name"`
	Version    string         `json:"version"`
	Features   []string       `json:"features"`
	Scaler     *ScalerSpec    `json:"scaler,omitempty"`
	Classifier ClassifierSpec `json:"classifier"`
}

// ScalerSpec standardises inputs as (x - mean) / scale.
type ScalerSpec struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ClassifierSpec describes the fitted classifier. Trees is used by
// random_forest; Intercept and Coefficients by logistic.
type ClassifierSpec struct {
	Type         string     `json:"type"`
	Trees        []TreeSpec `json:"trees,omitempty"`
	Intercept    float64    `json:"intercept,omitempty"`
	Coefficients []float64  `json:"coefficients,omitempty"`
}

// TreeSpec is a fitted binary decision tree in flat array form. Node i is a
// leaf when ChildrenLeft[i] == -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] go left. Value[i] holds the class weights
// [negative, positive] at node i.
type TreeSpec struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type predictor interface {
	predict(x []float64) float64
}

// Bundle is a loaded, validated classifier with its schema.
type Bundle struct {
	name      string
	version   string
	schema    domain.Schema
	scaler    *scaler
	predictor predictor
}

// Load reads and validates a bundle from path.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: "open model bundle", Err: err}
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a bundle from r.
func Decode(r io.Reader) (*Bundle, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, &domain.ConfigurationError{Reason: "decode model bundle", Err: err}
	}
	return New(file)
}

// New validates file and builds a Bundle from it. All failures are
// *domain.ConfigurationError.
func New(file File) (*Bundle, error) {
	schema, err := domain.NewSchema(file.Features)
	if err != nil {
		return nil, err
	}
	n := schema.Len()

	b := &Bundle{
		name:    file.Name,
		version: file.Version,
		schema:  schema,
	}
	if b.name == "" {
		b.name = "unnamed"
	}

	if file.Scaler != nil {
		sc, err := newScaler(*file.Scaler, n)
		if err != nil {
			return nil, configErr("scaler", err)
		}
		b.scaler = sc
	}

	switch file.Classifier.Type {
	case TypeRandomForest:
		f, err := newForest(file.Classifier.Trees, n)
		if err != nil {
			return nil, configErr("random forest", err)
		}
		b.predictor = f
	case TypeLogistic:
		l, err := newLogistic(file.Classifier.Intercept, file.Classifier.Coefficients, n)
		if err != nil {
			return nil, configErr("logistic", err)
		}
		b.predictor = l
	default:
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("unsupported classifier type %q", file.Classifier.Type)}
	}

	return b, nil
}

func configErr(part string, err error) error {
	return &domain.ConfigurationError{Reason: "invalid " + part, Err: err}
}

// Schema returns the feature schema the classifier was trained on.
func (b *Bundle) Schema() domain.Schema { return b.schema }

// NumFeatures returns the classifier's input width.
func (b *Bundle) NumFeatures() int { return b.schema.Len() }

// Info identifies the bundle.
func (b *Bundle) Info() domain.ModelInfo {
	return domain.ModelInfo{Name: b.name, Version: b.version}
}

// ProbabilityOfPositive implements domain.Classifier.
func (b *Bundle) ProbabilityOfPositive(ctx context.Context, v domain.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.ClassifierError{Err: err}
	}
	if len(v) != b.schema.Len() {
		return 0, &domain.ClassifierError{Err: fmt.Errorf("feature vector has %d entries, model expects %d", len(v), b.schema.Len())}
	}

	x := []float64(v)
	if b.scaler != nil {
		x = b.scaler.transform(x)
	}
	return b.predictor.predict(x), nil
}
