package inference

import (
	"errors"
	"fmt"
)

// configurationError signals missing or invalid startup configuration.
type configurationError struct{ err error }

func (e configurationError) Error() string { return "configuration: " + e.err.Error() }
func (e configurationError) Unwrap() error { return e.err }

// ErrConfiguration wraps err as a configuration error.
func ErrConfiguration(err error) error { return configurationError{err: err} }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	var e configurationError
	return errors.As(err, &e)
}

// modelLoadError signals that the model at path could not be loaded.
type modelLoadError struct {
	path string
	err  error
}

func (e modelLoadError) Error() string { return fmt.Sprintf("load model %s: %v", e.path, e.err) }
func (e modelLoadError) Unwrap() error { return e.err }

// ErrModelLoad wraps a load failure for path.
func ErrModelLoad(path string, err error) error { return modelLoadError{path: path, err: err} }

// IsModelLoad reports whether err is a model load error.
func IsModelLoad(err error) bool {
	var e modelLoadError
	return errors.As(err, &e)
}

// inferenceError signals that generation failed mid-run. No partial output
// accompanies it.
type inferenceError struct{ err error }

func (e inferenceError) Error() string { return "inference failed: " + e.err.Error() }
func (e inferenceError) Unwrap() error { return e.err }

// ErrInference wraps a generation failure.
func ErrInference(err error) error { return inferenceError{err: err} }

// IsInference reports whether err is an inference error.
func IsInference(err error) bool {
	var e inferenceError
	return errors.As(err, &e)
}
