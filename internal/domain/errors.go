package domain

import "fmt"

// FieldError reports an observation field that is missing, has the wrong
// type or lies outside its declared range.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// ClassifierError reports a classifier that rejected a feature vector or
// failed internally. It is not retryable.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// ConfigurationError reports a model bundle or engine setup that cannot
// serve requests at all.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func missingField(name string) *FieldError {
	return &FieldError{Field: name, Reason: "is required"}
}
