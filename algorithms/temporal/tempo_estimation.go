package temporal

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoTempo is returned when the onset envelope has no periodicity in the searched BPM range
var ErrNoTempo = errors.New("no tempo candidate found")

// TempoCandidate is one periodicity of the onset envelope, expressed in BPM
type TempoCandidate struct {
	BPM   float64 `json:"bpm"`
	Score float64 `json:"score"` // prior-weighted autocorrelation, higher is more likely
}

// TempoEstimation ranks tempo candidates from onset envelope autocorrelation
type TempoEstimation struct {
	minBPM   float64
	maxBPM   float64
	priorBPM float64 // center of the log-normal tempo prior
	priorStd float64 // prior width in octaves
}

// NewTempoEstimation creates a tempo estimator searching 30-300 BPM with a prior around 120 BPM
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		minBPM:   30,
		maxBPM:   300,
		priorBPM: 120,
		priorStd: 1.0,
	}
}

// Candidates returns tempo candidates ordered from most to least likely.
// ErrNoTempo is returned for envelopes without any periodic structure, silence included.
func (te *TempoEstimation) Candidates(env *OnsetEnvelope) ([]TempoCandidate, error) {
	if env == nil || len(env.Strength) < 4 || env.FrameRate <= 0 {
		return nil, fmt.Errorf("onset envelope too short: %w", ErrNoTempo)
	}

	// Lags, in frames, covering the BPM range
	minLag := max(1, int(math.Floor(60.0*env.FrameRate/te.maxBPM)))
	maxLag := min(len(env.Strength)-2, int(math.Ceil(60.0*env.FrameRate/te.minBPM)))
	if maxLag <= minLag {
		return nil, fmt.Errorf("onset envelope too short for %v BPM: %w", te.minBPM, ErrNoTempo)
	}

	autocorr := te.calculateAutocorrelation(env.Strength, maxLag+2)
	if autocorr[0] <= 0 {
		return nil, ErrNoTempo
	}

	weighted := make([]float64, len(autocorr))
	for lag := 1; lag < len(autocorr); lag++ {
		bpm := 60.0 * env.FrameRate / float64(lag)
		weighted[lag] = autocorr[lag] * te.prior(bpm)
	}

	var candidates []TempoCandidate
	for lag := minLag; lag <= maxLag; lag++ {
		if lag < 1 || lag+1 >= len(weighted) {
			continue
		}
		if weighted[lag] <= 0 || weighted[lag] <= weighted[lag-1] || weighted[lag] < weighted[lag+1] {
			continue
		}

		refined := float64(lag) + parabolicOffset(autocorr[lag-1], autocorr[lag], autocorr[lag+1])
		bpm := 60.0 * env.FrameRate / refined
		if bpm < te.minBPM || bpm > te.maxBPM {
			continue
		}
		candidates = append(candidates, TempoCandidate{BPM: bpm, Score: weighted[lag]})
	}

	if len(candidates) == 0 {
		return nil, ErrNoTempo
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// prior weights a tempo by its distance, in octaves, from the preferred tempo
func (te *TempoEstimation) prior(bpm float64) float64 {
	octaves := math.Log2(bpm/te.priorBPM) / te.priorStd
	return math.Exp(-0.5 * octaves * octaves)
}

// calculateAutocorrelation calculates the autocorrelation normalized to lag 0
func (te *TempoEstimation) calculateAutocorrelation(signal []float64, maxLag int) []float64 {
	maxLag = min(maxLag, len(signal))
	autocorr := make([]float64, maxLag)

	for lag := range maxLag {
		sum := 0.0
		count := 0
		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
			count++
		}
		if count > 0 {
			autocorr[lag] = sum / float64(count)
		}
	}

	if autocorr[0] > 0 {
		norm := autocorr[0]
		for i := range autocorr {
			autocorr[i] /= norm
		}
	}

	return autocorr
}

// parabolicOffset returns the sub-sample position of a peak given its two neighbours, in [-0.5, 0.5]
func parabolicOffset(left, center, right float64) float64 {
	denom := left - 2*center + right
	if denom == 0 {
		return 0
	}
	offset := 0.5 * (left - right) / denom
	return math.Max(-0.5, math.Min(0.5, offset))
}
