package domain

import (
	"fmt"
	"strings"
)

// FeatureVector is an observation projected into schema order.
type FeatureVector []float64

// Schema is the ordered list of feature names a classifier was trained on.
// It is fixed for the lifetime of a process.
type Schema struct {
	names []string
}

// NewSchema canonicalises and validates training-time feature names. Every
// name must be a numeric observation field and appear at most once.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, &ConfigurationError{Reason: "feature schema is empty"}
	}
	seen := make(map[string]bool, len(names))
	canon := make([]string, len(names))
	for i, n := range names {
		name, ok := CanonicalFieldName(n)
		if !ok || name == FieldSoilCategory {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("feature %q is not an observation field", n)}
		}
		if seen[name] {
			return Schema{}, &ConfigurationError{Reason: fmt.Sprintf("feature %q listed more than once", n)}
		}
		seen[name] = true
		canon[i] = name
	}
	return Schema{names: canon}, nil
}

// Len returns the number of features.
func (s Schema) Len() int { return len(s.names) }

// Names returns a copy of the canonical feature names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Schema) String() string { return strings.Join(s.names, ",") }

// BuildFeatureVector projects obs into schema order. The i-th entry is the
// value of the field named schema.Names()[i].
func BuildFeatureVector(obs Observation, schema Schema) (FeatureVector, error) {
	if schema.Len() == 0 {
		return nil, &ConfigurationError{Reason: "feature schema is empty"}
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	vec := make(FeatureVector, len(schema.names))
	for i, name := range schema.names {
		v, ok := obs.Field(name)
		if !ok {
			return nil, &FieldError{Field: name, Reason: "not provided by observation"}
		}
		vec[i] = v
	}
	return vec, nil
}
