package groove

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-groove/groove/config"
)

// ErrNonFinite is returned when a NaN or infinite value reaches the classifier or a similarity metric
var ErrNonFinite = errors.New("non-finite value")

// ConfigurationError reports an invalid or inconsistent setting
type ConfigurationError = config.ConfigurationError

// DecodeError wraps a failure to read or decode one input file
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AlgorithmError is a descriptor computation failure inside one window
type AlgorithmError struct {
	RecordingID string
	Window      Window
	Descriptor  Descriptor
	Err         error
}

func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("%s: window %d [%g, %g): %s: %v",
		e.RecordingID, e.Window.Index, e.Window.Start, e.Window.End, e.Descriptor, e.Err)
}

func (e *AlgorithmError) Unwrap() error {
	return e.Err
}

// UndefinedSimilarityError marks a similarity cell whose metric has no value
// for the given pair, e.g. a zero-norm vector
type UndefinedSimilarityError struct {
	Descriptor Descriptor
	A, B       string
	Reason     string
}

func (e *UndefinedSimilarityError) Error() string {
	if e.A == "" && e.B == "" {
		return fmt.Sprintf("undefined %s similarity: %s", e.Descriptor, e.Reason)
	}
	return fmt.Sprintf("undefined %s similarity between %s and %s: %s", e.Descriptor, e.A, e.B, e.Reason)
}
