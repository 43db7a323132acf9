package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
)

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	stft       *STFT
	freqBins   []float64 // Pre-calculated bin frequencies
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
		stft:       NewSTFT(),
	}
}

// Compute calculates the spectral centroid in Hz for a single magnitude spectrum.
// A spectrum with no energy has a centroid of 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) < 2 {
		return 0.0
	}

	if len(sc.freqBins) != len(spectrum) {
		sc.initializeFreqBins(len(spectrum))
	}

	numerator := 0.0
	denominator := 0.0
	for i := range spectrum {
		numerator += sc.freqBins[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ComputeFrames processes multiple frames
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}
	return centroids
}

// ComputeMean returns the frame-averaged centroid of a signal in Hz
func (sc *SpectralCentroid) ComputeMean(signal []float64, windowSize, hopSize int) (float64, error) {
	spec, err := sc.stft.Compute(signal, windowSize, hopSize, sc.sampleRate)
	if err != nil {
		return 0, fmt.Errorf("failed to compute STFT: %w", err)
	}
	return common.Mean(sc.ComputeFrames(spec.Magnitude)), nil
}

// initializeFreqBins pre-calculates frequency bins
func (sc *SpectralCentroid) initializeFreqBins(numBins int) {
	sc.freqBins = make([]float64, numBins)
	for i := range numBins {
		sc.freqBins[i] = float64(i) * float64(sc.sampleRate) / float64((numBins-1)*2)
	}
}
