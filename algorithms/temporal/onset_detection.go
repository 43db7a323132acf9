package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-groove/algorithms/spectral"
)

// OnsetEnvelope is an onset strength curve sampled once per STFT frame
type OnsetEnvelope struct {
	Strength  []float64 `json:"strength"`
	FrameRate float64   `json:"frame_rate"` // frames per second
	HopSize   int       `json:"hop_size"`
}

// FrameToSeconds converts an envelope frame index to a time offset
func (o *OnsetEnvelope) FrameToSeconds(frame int) float64 {
	return float64(frame) / o.FrameRate
}

// OnsetDetection computes onset strength from spectral change
type OnsetDetection struct {
	spectralFlux *spectral.SpectralFlux
	stft         *spectral.STFT
	windowSize   int
	hopSize      int
	topDB        float64
}

// NewOnsetDetection creates an onset detector with 2048 sample frames and a 512 sample hop
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		spectralFlux: spectral.NewSpectralFlux(),
		stft:         spectral.NewSTFT(),
		windowSize:   spectral.DefaultWindowSize,
		hopSize:      spectral.DefaultHopSize,
		topDB:        80,
	}
}

// MinSamples returns the shortest signal that yields a usable envelope
func (od *OnsetDetection) MinSamples() int {
	return od.windowSize + 3*od.hopSize
}

// OnsetStrength computes the onset strength envelope: the mean positive change
// in log power across frequency bins, one value per frame
func (od *OnsetDetection) OnsetStrength(signal []float64, sampleRate int) (*OnsetEnvelope, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if len(signal) < od.MinSamples() {
		return nil, fmt.Errorf("signal too short for onset detection: %d samples < %d", len(signal), od.MinSamples())
	}

	spec, err := od.stft.Compute(signal, od.windowSize, od.hopSize, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute STFT: %w", err)
	}

	db := spectral.PowerToDB(spec.Magnitude, od.topDB)
	strength := od.spectralFlux.ComputeRectifiedMean(db)

	return &OnsetEnvelope{
		Strength:  strength,
		FrameRate: float64(sampleRate) / float64(od.hopSize),
		HopSize:   od.hopSize,
	}, nil
}
