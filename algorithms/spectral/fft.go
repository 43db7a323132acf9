package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-valued frames
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of x.
// go-dsp handles non-power-of-2 sizes.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequencies of x (len(x)/2+1 bins)
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	mag := make([]float64, bins)
	for i := range bins {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}
