package groove

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
	"github.com/RyanBlaney/sonido-groove/groove/config"
	"github.com/RyanBlaney/sonido-groove/logging"
)

var (
	errTooShort        = errors.New("window shorter than the algorithm minimum")
	errNoCandidates    = errors.New("algorithm returned no candidates")
	errWrongDimension  = errors.New("algorithm returned a vector of unexpected length")
	errUnknownSelector = errors.New("unknown selection policy")
)

// FeatureAlgorithm computes one descriptor from a slice of samples.
//
// Scalar algorithms return a ranked candidate list, most likely first. Vector
// algorithms return the vector itself, Dimension() values long. Implementations
// are called from several goroutines at once and must not share mutable state
// between calls.
type FeatureAlgorithm interface {
	Name() Descriptor
	Kind() ValueKind
	Dimension() int
	MinSamples(sampleRate int) int
	Compute(samples []float64, sampleRate int) ([]float64, error)
}

// SubstitutionEvent records a window value that was replaced by a neutral stand-in
type SubstitutionEvent struct {
	RecordingID string     `json:"recording_id" yaml:"recording_id"`
	Window      Window     `json:"window" yaml:"window"`
	Descriptor  Descriptor `json:"descriptor" yaml:"descriptor"`
	Reason      string     `json:"reason" yaml:"reason"`
}

// SelectCandidate reduces a ranked candidate list to one value
func SelectCandidate(policy config.SelectionPolicy, candidates []float64) (float64, error) {
	if len(candidates) == 0 {
		return 0, errNoCandidates
	}
	switch policy {
	case config.SelectHighestConfidence, "":
		return candidates[0], nil
	case config.SelectMedian:
		return common.Median(candidates), nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownSelector, policy)
	}
}

// DescriptorComputer evaluates a fixed set of algorithms on recording windows
type DescriptorComputer struct {
	algorithms []FeatureAlgorithm
	policy     config.SelectionPolicy
	logger     logging.Logger
}

// NewDescriptorComputer checks the algorithm set and selection policy
func NewDescriptorComputer(algorithms []FeatureAlgorithm, policy config.SelectionPolicy) (*DescriptorComputer, error) {
	if len(algorithms) == 0 {
		return nil, &ConfigurationError{Field: "descriptors", Reason: "no algorithms registered"}
	}

	seen := make(map[Descriptor]bool, len(algorithms))
	for _, alg := range algorithms {
		name := alg.Name()
		if seen[name] {
			return nil, &ConfigurationError{Field: "descriptors", Reason: fmt.Sprintf("duplicate algorithm for %q", name)}
		}
		seen[name] = true
		if alg.Dimension() <= 0 {
			return nil, &ConfigurationError{Field: "descriptors", Reason: fmt.Sprintf("algorithm %q has dimension %d", name, alg.Dimension())}
		}
	}

	if _, err := SelectCandidate(policy, []float64{0}); err != nil {
		return nil, &ConfigurationError{Field: "selection", Reason: err.Error()}
	}

	return &DescriptorComputer{
		algorithms: algorithms,
		policy:     policy,
		logger: logging.WithFields(logging.Fields{
			"component": "descriptor_computer",
		}),
	}, nil
}

// Descriptors lists the computed descriptors in registration order
func (dc *DescriptorComputer) Descriptors() []Descriptor {
	out := make([]Descriptor, len(dc.algorithms))
	for i, alg := range dc.algorithms {
		out[i] = alg.Name()
	}
	return out
}

// Algorithm returns the algorithm registered for d
func (dc *DescriptorComputer) Algorithm(d Descriptor) (FeatureAlgorithm, bool) {
	for _, alg := range dc.algorithms {
		if alg.Name() == d {
			return alg, true
		}
	}
	return nil, false
}

// Compute evaluates every algorithm on one window. It never fails: a value that
// cannot be computed is replaced by 0 (or a zero vector) and reported as a
// substitution.
func (dc *DescriptorComputer) Compute(rec *Recording, win Window) ([]DescriptorValue, []SubstitutionEvent) {
	lo, hi := sampleRange(win, rec.SampleRate, len(rec.Samples))
	samples := rec.Samples[lo:hi]

	values := make([]DescriptorValue, 0, len(dc.algorithms))
	var events []SubstitutionEvent

	for _, alg := range dc.algorithms {
		value, err := dc.computeOne(alg, samples, rec.SampleRate)
		value.Window = win
		if err != nil {
			algErr := &AlgorithmError{RecordingID: rec.ID, Window: win, Descriptor: alg.Name(), Err: err}
			events = append(events, SubstitutionEvent{
				RecordingID: rec.ID,
				Window:      win,
				Descriptor:  alg.Name(),
				Reason:      err.Error(),
			})
			dc.logger.Warn("Substituting neutral value", logging.Fields{
				"recording":  rec.ID,
				"window":     win.Index,
				"descriptor": alg.Name(),
				"error":      algErr.Error(),
			})
			value = neutralValue(alg, win)
		}
		values = append(values, value)
	}

	return values, events
}

// ComputeFile segments a recording and computes every descriptor in every window
func (dc *DescriptorComputer) ComputeFile(ctx context.Context, rec *Recording, windowLength, hopLength float64) (*FileSeries, []SubstitutionEvent, error) {
	if err := ValidateSegmentation(windowLength, hopLength); err != nil {
		return nil, nil, err
	}

	logger := dc.logger.WithFields(logging.Fields{
		"function":  "ComputeFile",
		"recording": rec.ID,
	})

	fs := NewFileSeries(rec.ID, rec.Duration())
	var events []SubstitutionEvent

	for win := range Segment(rec.Duration(), windowLength, hopLength) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		values, subs := dc.Compute(rec, win)
		fs.Windows = append(fs.Windows, win)
		for _, v := range values {
			fs.Series[v.Descriptor] = append(fs.Series[v.Descriptor], v)
		}
		events = append(events, subs...)
	}

	logger.Debug("Descriptors computed", logging.Fields{
		"windows":       len(fs.Windows),
		"substitutions": len(events),
	})

	return fs, events, nil
}

func (dc *DescriptorComputer) computeOne(alg FeatureAlgorithm, samples []float64, sampleRate int) (DescriptorValue, error) {
	value := DescriptorValue{Descriptor: alg.Name(), Kind: alg.Kind()}

	if need := alg.MinSamples(sampleRate); len(samples) < need {
		return value, fmt.Errorf("%w: %d samples < %d", errTooShort, len(samples), need)
	}

	out, err := alg.Compute(samples, sampleRate)
	if err != nil {
		return value, err
	}
	if !common.AllFinite(out) {
		return value, ErrNonFinite
	}

	switch alg.Kind() {
	case KindScalar:
		selected, err := SelectCandidate(dc.policy, out)
		if err != nil {
			return value, err
		}
		value.Scalar = selected
	case KindVector:
		if len(out) != alg.Dimension() {
			return value, fmt.Errorf("%w: %d != %d", errWrongDimension, len(out), alg.Dimension())
		}
		value.Vector = out
	default:
		return value, fmt.Errorf("unknown value kind %d", alg.Kind())
	}

	return value, nil
}

func neutralValue(alg FeatureAlgorithm, win Window) DescriptorValue {
	v := DescriptorValue{
		Descriptor:  alg.Name(),
		Kind:        alg.Kind(),
		Window:      win,
		Substituted: true,
	}
	if alg.Kind() == KindVector {
		v.Vector = make([]float64, alg.Dimension())
	}
	return v
}
