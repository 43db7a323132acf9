package extractors

import (
	"github.com/RyanBlaney/sonido-groove/algorithms/spectral"
	"github.com/RyanBlaney/sonido-groove/algorithms/temporal"
	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/groove/config"
)

// SpectralCentroid is the frame-averaged spectral centroid in Hz
type SpectralCentroid struct{}

// NewSpectralCentroid creates the spectral centroid algorithm
func NewSpectralCentroid() *SpectralCentroid {
	return &SpectralCentroid{}
}

func (*SpectralCentroid) Name() config.Descriptor { return config.DescriptorSpectralCentroid }
func (*SpectralCentroid) Kind() groove.ValueKind  { return groove.KindScalar }
func (*SpectralCentroid) Dimension() int          { return 1 }
func (*SpectralCentroid) MinSamples(int) int      { return spectral.DefaultWindowSize }

func (*SpectralCentroid) Compute(samples []float64, sampleRate int) ([]float64, error) {
	// the centroid caches bin frequencies, so each call gets its own
	centroid, err := spectral.NewSpectralCentroid(sampleRate).ComputeMean(samples, spectral.DefaultWindowSize, spectral.DefaultHopSize)
	if err != nil {
		return nil, err
	}
	return []float64{centroid}, nil
}

// ShortTermEnergy is the sum of squared samples over the window
type ShortTermEnergy struct {
	energy *temporal.Energy
}

// NewShortTermEnergy creates the energy algorithm
func NewShortTermEnergy() *ShortTermEnergy {
	return &ShortTermEnergy{energy: temporal.NewEnergy()}
}

func (*ShortTermEnergy) Name() config.Descriptor { return config.DescriptorShortTermEnergy }
func (*ShortTermEnergy) Kind() groove.ValueKind  { return groove.KindScalar }
func (*ShortTermEnergy) Dimension() int          { return 1 }
func (*ShortTermEnergy) MinSamples(int) int      { return 1 }

func (e *ShortTermEnergy) Compute(samples []float64, _ int) ([]float64, error) {
	return []float64{e.energy.Compute(samples)}, nil
}

// MFCC is the mean MFCC vector of the window
type MFCC struct {
	coefficients int
}

// NewMFCC creates the MFCC algorithm; coefficients <= 0 selects 20
func NewMFCC(coefficients int) *MFCC {
	if coefficients <= 0 {
		coefficients = 20
	}
	return &MFCC{coefficients: coefficients}
}

func (*MFCC) Name() config.Descriptor { return config.DescriptorMFCC }
func (*MFCC) Kind() groove.ValueKind  { return groove.KindVector }
func (m *MFCC) Dimension() int        { return m.coefficients }
func (*MFCC) MinSamples(int) int      { return spectral.DefaultWindowSize }

func (m *MFCC) Compute(samples []float64, sampleRate int) ([]float64, error) {
	return spectral.NewMFCC(sampleRate, m.coefficients).ComputeMean(samples, spectral.DefaultWindowSize, spectral.DefaultHopSize)
}
