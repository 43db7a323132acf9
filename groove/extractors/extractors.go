// Package extractors binds the DSP algorithms to the descriptor names the
// pipeline computes.
package extractors

import (
	"fmt"

	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/groove/config"
	"github.com/RyanBlaney/sonido-groove/logging"
)

// AlgorithmFactory creates feature algorithms by descriptor name
type AlgorithmFactory struct {
	mfccCoefficients int
	logger           logging.Logger
}

// NewAlgorithmFactory creates a factory using cfg's algorithm parameters
func NewAlgorithmFactory(cfg *config.Config) *AlgorithmFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &AlgorithmFactory{
		mfccCoefficients: cfg.MFCCCoefficients,
		logger: logging.WithFields(logging.Fields{
			"component": "algorithm_factory",
		}),
	}
}

// Create returns the algorithm computing d
func (f *AlgorithmFactory) Create(d config.Descriptor) (groove.FeatureAlgorithm, error) {
	logger := f.logger.WithFields(logging.Fields{
		"function":   "Create",
		"descriptor": d,
	})

	var alg groove.FeatureAlgorithm
	switch d {
	case config.DescriptorBPM:
		alg = NewBPM()
	case config.DescriptorOnsetVariability:
		alg = NewOnsetVariability()
	case config.DescriptorTempoStability:
		alg = NewTempoStability()
	case config.DescriptorSyncopation:
		alg = NewSyncopation()
	case config.DescriptorBeatStrengthVariance:
		alg = NewBeatStrengthVariance()
	case config.DescriptorSpectralCentroid:
		alg = NewSpectralCentroid()
	case config.DescriptorShortTermEnergy:
		alg = NewShortTermEnergy()
	case config.DescriptorMFCC:
		alg = NewMFCC(f.mfccCoefficients)
	default:
		return nil, &config.ConfigurationError{Field: "descriptors", Reason: fmt.Sprintf("unknown descriptor %q", d)}
	}

	logger.Debug("Created feature algorithm", logging.Fields{
		"kind":      alg.Kind().String(),
		"dimension": alg.Dimension(),
	})
	return alg, nil
}

// CreateAll returns algorithms for ds in the same order
func (f *AlgorithmFactory) CreateAll(ds []config.Descriptor) ([]groove.FeatureAlgorithm, error) {
	out := make([]groove.FeatureAlgorithm, 0, len(ds))
	for _, d := range ds {
		alg, err := f.Create(d)
		if err != nil {
			return nil, err
		}
		out = append(out, alg)
	}
	return out, nil
}

// DefaultAlgorithms returns the algorithms for cfg.Descriptors
func DefaultAlgorithms(cfg *config.Config) ([]groove.FeatureAlgorithm, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewAlgorithmFactory(cfg).CreateAll(cfg.Descriptors)
}
