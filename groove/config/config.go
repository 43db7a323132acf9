package config

import (
	"fmt"
	"math"
	"runtime"
	"slices"
)

// Descriptor names a per-window measurement
type Descriptor string

const (
	DescriptorBPM                  Descriptor = "bpm"
	DescriptorOnsetVariability     Descriptor = "onset_variability"
	DescriptorTempoStability       Descriptor = "tempo_stability"
	DescriptorSyncopation          Descriptor = "syncopation"
	DescriptorSpectralCentroid     Descriptor = "spectral_centroid"
	DescriptorShortTermEnergy      Descriptor = "short_term_energy"
	DescriptorBeatStrengthVariance Descriptor = "beat_strength_variance"
	DescriptorMFCC                 Descriptor = "mfcc"
)

// AllDescriptors lists every descriptor the bundled extractors can compute, in export order
func AllDescriptors() []Descriptor {
	return []Descriptor{
		DescriptorBPM,
		DescriptorOnsetVariability,
		DescriptorTempoStability,
		DescriptorSyncopation,
		DescriptorSpectralCentroid,
		DescriptorShortTermEnergy,
		DescriptorBeatStrengthVariance,
		DescriptorMFCC,
	}
}

// SelectionPolicy decides which candidate of a ranked result becomes the window value
type SelectionPolicy string

const (
	// SelectHighestConfidence keeps the first (most likely) candidate
	SelectHighestConfidence SelectionPolicy = "highest_confidence"
	// SelectMedian keeps the median of all candidates
	SelectMedian SelectionPolicy = "median"
)

// Thresholds split a scalar descriptor into Low / Moderate / High.
// Both bounds belong to Moderate.
type Thresholds struct {
	Low  float64 `json:"low" yaml:"low" mapstructure:"low"`
	High float64 `json:"high" yaml:"high" mapstructure:"high"`
}

// Validate checks that both bounds are finite and ordered
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Low) || math.IsInf(t.Low, 0) || math.IsNaN(t.High) || math.IsInf(t.High, 0) {
		return fmt.Errorf("thresholds must be finite: low=%v high=%v", t.Low, t.High)
	}
	if t.Low >= t.High {
		return fmt.Errorf("low threshold %v must be below high threshold %v", t.Low, t.High)
	}
	return nil
}

// Config holds everything a pipeline run needs
type Config struct {
	// Segmentation, in seconds
	WindowLength float64 `json:"window_length" yaml:"window_length" mapstructure:"window_length"`
	HopLength    float64 `json:"hop_length" yaml:"hop_length" mapstructure:"hop_length"`

	// Descriptor selection
	Descriptors []Descriptor              `json:"descriptors" yaml:"descriptors" mapstructure:"descriptors"`
	Thresholds  map[Descriptor]Thresholds `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
	Selection   SelectionPolicy           `json:"selection" yaml:"selection" mapstructure:"selection"`
	Similarity  []Descriptor              `json:"similarity" yaml:"similarity" mapstructure:"similarity"`

	// Algorithm parameters
	MFCCCoefficients int `json:"mfcc_coefficients" yaml:"mfcc_coefficients" mapstructure:"mfcc_coefficients"`

	// Input / output
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
	Decimals   int      `json:"decimals" yaml:"decimals" mapstructure:"decimals"` // -1 keeps full precision

	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the standard analysis settings:
// 20 second windows without overlap, every descriptor, MFCC and BPM similarity
func DefaultConfig() *Config {
	return &Config{
		WindowLength: 20,
		HopLength:    20,
		Descriptors:  AllDescriptors(),
		Thresholds: map[Descriptor]Thresholds{
			DescriptorOnsetVariability: {Low: 0.2, High: 0.5},
			DescriptorTempoStability:   {Low: 0.05, High: 0.15},
		},
		Selection:        SelectHighestConfidence,
		Similarity:       []Descriptor{DescriptorMFCC, DescriptorBPM},
		MFCCCoefficients: 20,
		Extensions:       []string{".mp3"},
		Decimals:         -1,
		Workers:          max(1, runtime.NumCPU()/2),
	}
}

// ConfigurationError reports an invalid or inconsistent setting
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration and returns the first problem found
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigurationError{Field: "config", Reason: "missing"}
	}

	if !(c.WindowLength > 0) || math.IsInf(c.WindowLength, 0) {
		return &ConfigurationError{Field: "window_length", Reason: fmt.Sprintf("must be positive and finite, got %v", c.WindowLength)}
	}
	if !(c.HopLength > 0) || math.IsInf(c.HopLength, 0) {
		return &ConfigurationError{Field: "hop_length", Reason: fmt.Sprintf("must be positive and finite, got %v", c.HopLength)}
	}

	if len(c.Descriptors) == 0 {
		return &ConfigurationError{Field: "descriptors", Reason: "at least one descriptor is required"}
	}
	seen := make(map[Descriptor]bool, len(c.Descriptors))
	for _, d := range c.Descriptors {
		if seen[d] {
			return &ConfigurationError{Field: "descriptors", Reason: fmt.Sprintf("duplicate descriptor %q", d)}
		}
		seen[d] = true
	}

	for d, t := range c.Thresholds {
		if err := t.Validate(); err != nil {
			return &ConfigurationError{Field: "thresholds." + string(d), Reason: err.Error()}
		}
	}

	for _, d := range c.Similarity {
		if !seen[d] {
			return &ConfigurationError{Field: "similarity", Reason: fmt.Sprintf("descriptor %q is not computed", d)}
		}
	}

	switch c.Selection {
	case SelectHighestConfidence, SelectMedian:
	default:
		return &ConfigurationError{Field: "selection", Reason: fmt.Sprintf("unknown policy %q", c.Selection)}
	}

	if c.MFCCCoefficients <= 0 && c.HasDescriptor(DescriptorMFCC) {
		return &ConfigurationError{Field: "mfcc_coefficients", Reason: "must be positive"}
	}

	if c.Workers <= 0 {
		return &ConfigurationError{Field: "workers", Reason: "must be positive"}
	}

	return nil
}

// HasDescriptor reports whether d is part of the run
func (c *Config) HasDescriptor(d Descriptor) bool {
	return slices.Contains(c.Descriptors, d)
}
