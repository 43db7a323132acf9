package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
)

// MFCC computes Mel-Frequency Cepstral Coefficients per frame and their
// mean over a whole signal
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	melScale   *MelScale
	stft       *STFT
	filterBank [][]float64
	dctMatrix  [][]float64
	fftSize    int
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // default: 20
	NumMelFilters   int     `json:"num_mel_filters"`  // default: 40, raised to NumCoefficients if smaller
	LowFreq         float64 `json:"low_freq"`         // default: 0
	HighFreq        float64 `json:"high_freq"`        // default: sampleRate/2
}

// NewMFCC creates a new MFCC computer with default parameters
func NewMFCC(sampleRate, numCoefficients int) *MFCC {
	return NewMFCCWithParams(sampleRate, MFCCParams{NumCoefficients: numCoefficients})
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 20
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 40
	}
	params.NumMelFilters = max(params.NumMelFilters, params.NumCoefficients)
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	return &MFCC{
		numCoefficients: params.NumCoefficients,
		numMelFilters:   params.NumMelFilters,
		sampleRate:      sampleRate,
		lowFreq:         params.LowFreq,
		highFreq:        params.HighFreq,
		melScale:        NewMelScale(),
		stft:            NewSTFT(),
	}
}

// NumCoefficients returns the length of every MFCC vector this computer produces
func (mfcc *MFCC) NumCoefficients() int {
	return mfcc.numCoefficients
}

// Initialize prepares the filter bank and DCT matrix for the given FFT size
func (mfcc *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}

	mfcc.filterBank = mfcc.melScale.CreateMelFilterBank(
		mfcc.numMelFilters,
		fftSize,
		mfcc.sampleRate,
		mfcc.lowFreq,
		mfcc.highFreq,
	)
	if len(mfcc.filterBank) == 0 {
		return fmt.Errorf("failed to create mel filter bank")
	}

	mfcc.createDCTMatrix()
	mfcc.fftSize = fftSize
	return nil
}

// Compute calculates MFCC coefficients for one magnitude spectrum
func (mfcc *MFCC) Compute(magnitudeSpectrum []float64) ([]float64, error) {
	if len(magnitudeSpectrum) < 2 {
		return nil, fmt.Errorf("magnitude spectrum too short: %d bins", len(magnitudeSpectrum))
	}

	fftSize := (len(magnitudeSpectrum) - 1) * 2
	if mfcc.fftSize != fftSize {
		if err := mfcc.Initialize(fftSize); err != nil {
			return nil, fmt.Errorf("failed to initialize MFCC: %w", err)
		}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}

	melSpectrum := mfcc.melScale.ApplyFilterBank(power, mfcc.filterBank)

	// dB with a floor so silent frames stay finite
	logMel := make([]float64, len(melSpectrum))
	for i, mel := range melSpectrum {
		logMel[i] = 10.0 * math.Log10(math.Max(mel, 1e-10))
	}

	return mfcc.applyDCT(logMel), nil
}

// ComputeFrames processes multiple frames of magnitude spectra
func (mfcc *MFCC) ComputeFrames(spectrogram [][]float64) ([][]float64, error) {
	frames := make([][]float64, len(spectrogram))
	for t, magnitudeSpectrum := range spectrogram {
		coeffs, err := mfcc.Compute(magnitudeSpectrum)
		if err != nil {
			return nil, fmt.Errorf("failed to compute MFCC for frame %d: %w", t, err)
		}
		frames[t] = coeffs
	}
	return frames, nil
}

// ComputeMean frames the signal, computes MFCCs per frame and returns the
// per-coefficient mean over all frames
func (mfcc *MFCC) ComputeMean(signal []float64, windowSize, hopSize int) ([]float64, error) {
	spec, err := mfcc.stft.Compute(signal, windowSize, hopSize, mfcc.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to compute STFT: %w", err)
	}

	frames, err := mfcc.ComputeFrames(spec.Magnitude)
	if err != nil {
		return nil, err
	}

	mean := make([]float64, mfcc.numCoefficients)
	column := make([]float64, len(frames))
	for k := range mfcc.numCoefficients {
		for t, coeffs := range frames {
			column[t] = coeffs[k]
		}
		mean[k] = common.Mean(column)
	}
	return mean, nil
}

// createDCTMatrix creates an orthonormal DCT-II matrix
func (mfcc *MFCC) createDCTMatrix() {
	n := float64(mfcc.numMelFilters)
	mfcc.dctMatrix = make([][]float64, mfcc.numCoefficients)

	for k := range mfcc.numCoefficients {
		row := make([]float64, mfcc.numMelFilters)
		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}
		for i := range mfcc.numMelFilters {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/n)
		}
		mfcc.dctMatrix[k] = row
	}
}

// applyDCT applies the Discrete Cosine Transform
func (mfcc *MFCC) applyDCT(logMelSpectrum []float64) []float64 {
	coeffs := make([]float64, mfcc.numCoefficients)
	for k, row := range mfcc.dctMatrix {
		sum := 0.0
		for n := 0; n < len(logMelSpectrum) && n < len(row); n++ {
			sum += logMelSpectrum[n] * row[n]
		}
		coeffs[k] = sum
	}
	return coeffs
}
