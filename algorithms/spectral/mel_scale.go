package spectral

import (
	"math"
)

// MelScale converts between Hz and mel and builds triangular filter banks
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// CreateMelFilterBank returns numFilters triangular filters over fftSize/2+1 bins,
// equally spaced in mel between lowFreq and highFreq
func (ms *MelScale) CreateMelFilterBank(numFilters int, fftSize int, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	// Edge frequencies of every triangle, in Hz
	edges := make([]float64, numFilters+2)
	for i := range edges {
		edges[i] = ms.MelToHz(lowMel + float64(i)*melStep)
	}

	numBins := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)

	filterBank := make([][]float64, numFilters)
	for m := range numFilters {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		filter := make([]float64, numBins)
		for k := range numBins {
			f := float64(k) * binHz
			switch {
			case f > left && f <= center && center > left:
				filter[k] = (f - left) / (center - left)
			case f > center && f < right && right > center:
				filter[k] = (right - f) / (right - center)
			}
		}
		filterBank[m] = filter
	}

	return filterBank
}

// ApplyFilterBank applies mel filter bank to power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	if len(filterBank) == 0 || len(powerSpectrum) == 0 {
		return []float64{}
	}

	melSpectrum := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	return melSpectrum
}
