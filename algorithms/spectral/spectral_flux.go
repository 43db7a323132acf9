package spectral

import (
	"math"
	"slices"
)

// SpectralFlux measures frame-to-frame spectral change
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// ComputeRectifiedMean returns one value per frame: the mean over bins of the
// half-wave rectified difference to the previous frame. The first frame is 0,
// so the result lines up with the spectrogram frames.
func (sf *SpectralFlux) ComputeRectifiedMean(spectrogram [][]float64) []float64 {
	out := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		bins := len(spectrogram[t])
		if bins == 0 {
			continue
		}
		sum := 0.0
		for f := range bins {
			if diff := spectrogram[t][f] - spectrogram[t-1][f]; diff > 0 {
				sum += diff
			}
		}
		out[t] = sum / float64(bins)
	}
	return out
}

// PowerToDB converts a magnitude spectrogram to power in dB relative to its
// loudest bin, clipped topDB below that peak
func PowerToDB(magnitude [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10

	peak := amin
	for _, frame := range magnitude {
		for _, m := range frame {
			peak = math.Max(peak, m*m)
		}
	}
	ref := 10.0 * math.Log10(peak)

	db := make([][]float64, len(magnitude))
	for t, frame := range magnitude {
		row := slices.Clone(frame)
		for f, m := range row {
			v := 10.0*math.Log10(math.Max(m*m, amin)) - ref
			if topDB > 0 {
				v = math.Max(v, -topDB)
			}
			row[f] = v
		}
		db[t] = row
	}
	return db
}
