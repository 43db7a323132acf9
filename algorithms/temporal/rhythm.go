package temporal

import (
	"fmt"
)

// RhythmResult bundles the onset envelope, tempo estimate and beat grid of a signal
type RhythmResult struct {
	Envelope *OnsetEnvelope   `json:"envelope"`
	Tempo    []TempoCandidate `json:"tempo"`
	Beats    []int            `json:"beats"` // envelope frame indices
}

// BeatIntervals returns the gaps between consecutive beats in seconds
func (r *RhythmResult) BeatIntervals() []float64 {
	if len(r.Beats) < 2 {
		return []float64{}
	}
	intervals := make([]float64, len(r.Beats)-1)
	for i := 1; i < len(r.Beats); i++ {
		intervals[i-1] = r.Envelope.FrameToSeconds(r.Beats[i] - r.Beats[i-1])
	}
	return intervals
}

// BeatStrengths returns the onset strength at every beat
func (r *RhythmResult) BeatStrengths() []float64 {
	strengths := make([]float64, len(r.Beats))
	for i, b := range r.Beats {
		strengths[i] = r.Envelope.Strength[b]
	}
	return strengths
}

// RhythmAnalyzer chains onset detection, tempo estimation and beat tracking
type RhythmAnalyzer struct {
	onsets  *OnsetDetection
	tempo   *TempoEstimation
	tracker *BeatTracker
}

// NewRhythmAnalyzer creates an analyzer with default components
func NewRhythmAnalyzer() *RhythmAnalyzer {
	return &RhythmAnalyzer{
		onsets:  NewOnsetDetection(),
		tempo:   NewTempoEstimation(),
		tracker: NewBeatTracker(),
	}
}

// MinSamples returns the shortest signal Analyze accepts
func (ra *RhythmAnalyzer) MinSamples() int {
	return ra.onsets.MinSamples()
}

// OnsetStrength exposes the envelope stage on its own
func (ra *RhythmAnalyzer) OnsetStrength(signal []float64, sampleRate int) (*OnsetEnvelope, error) {
	return ra.onsets.OnsetStrength(signal, sampleRate)
}

// Analyze runs the full rhythm chain. Beats are tracked at the top ranked tempo.
func (ra *RhythmAnalyzer) Analyze(signal []float64, sampleRate int) (*RhythmResult, error) {
	env, err := ra.onsets.OnsetStrength(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	candidates, err := ra.tempo.Candidates(env)
	if err != nil {
		return nil, err
	}

	beats, err := ra.tracker.Track(env, candidates[0].BPM)
	if err != nil {
		return nil, fmt.Errorf("beat tracking failed: %w", err)
	}

	return &RhythmResult{
		Envelope: env,
		Tempo:    candidates,
		Beats:    beats,
	}, nil
}
