package extractors

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
	"github.com/RyanBlaney/sonido-groove/algorithms/temporal"
	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/groove/config"
)

var errTooFewBeats = errors.New("fewer than two beats detected")

// rhythmBase carries the shared onset/tempo/beat chain. The analyzer holds
// no per-call state, so one instance serves every goroutine.
type rhythmBase struct {
	analyzer *temporal.RhythmAnalyzer
}

func newRhythmBase() rhythmBase {
	return rhythmBase{analyzer: temporal.NewRhythmAnalyzer()}
}

func (rhythmBase) Kind() groove.ValueKind { return groove.KindScalar }
func (rhythmBase) Dimension() int         { return 1 }

func (r rhythmBase) MinSamples(int) int {
	return r.analyzer.MinSamples()
}

// BPM returns ranked tempo candidates
type BPM struct{ rhythmBase }

// NewBPM creates the tempo algorithm
func NewBPM() *BPM {
	return &BPM{newRhythmBase()}
}

func (*BPM) Name() config.Descriptor { return config.DescriptorBPM }

func (b *BPM) Compute(samples []float64, sampleRate int) ([]float64, error) {
	res, err := b.analyzer.Analyze(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(res.Tempo))
	for i, c := range res.Tempo {
		out[i] = c.BPM
	}
	return out, nil
}

// OnsetVariability is the population standard deviation of the onset strength envelope
type OnsetVariability struct{ rhythmBase }

// NewOnsetVariability creates the onset variability algorithm
func NewOnsetVariability() *OnsetVariability {
	return &OnsetVariability{newRhythmBase()}
}

func (*OnsetVariability) Name() config.Descriptor { return config.DescriptorOnsetVariability }

func (o *OnsetVariability) Compute(samples []float64, sampleRate int) ([]float64, error) {
	env, err := o.analyzer.OnsetStrength(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return []float64{common.PopStdDev(env.Strength)}, nil
}

// TempoStability is the population standard deviation of beat intervals in seconds
type TempoStability struct{ rhythmBase }

// NewTempoStability creates the tempo stability algorithm
func NewTempoStability() *TempoStability {
	return &TempoStability{newRhythmBase()}
}

func (*TempoStability) Name() config.Descriptor { return config.DescriptorTempoStability }

func (ts *TempoStability) Compute(samples []float64, sampleRate int) ([]float64, error) {
	res, err := ts.analyzer.Analyze(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	intervals := res.BeatIntervals()
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: %d beats", errTooFewBeats, len(res.Beats))
	}
	return []float64{common.PopStdDev(intervals)}, nil
}

// Syncopation is the beat density: detected beats per second of window
type Syncopation struct{ rhythmBase }

// NewSyncopation creates the syncopation density algorithm
func NewSyncopation() *Syncopation {
	return &Syncopation{newRhythmBase()}
}

func (*Syncopation) Name() config.Descriptor { return config.DescriptorSyncopation }

func (s *Syncopation) Compute(samples []float64, sampleRate int) ([]float64, error) {
	res, err := s.analyzer.Analyze(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	seconds := float64(len(samples)) / float64(sampleRate)
	return []float64{float64(len(res.Beats)) / seconds}, nil
}

// BeatStrengthVariance is the population variance of onset strength at the
// beats. With one beat or none the variance is 0.
type BeatStrengthVariance struct{ rhythmBase }

// NewBeatStrengthVariance creates the beat strength variance algorithm
func NewBeatStrengthVariance() *BeatStrengthVariance {
	return &BeatStrengthVariance{newRhythmBase()}
}

func (*BeatStrengthVariance) Name() config.Descriptor { return config.DescriptorBeatStrengthVariance }

func (b *BeatStrengthVariance) Compute(samples []float64, sampleRate int) ([]float64, error) {
	res, err := b.analyzer.Analyze(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return []float64{common.PopVariance(res.BeatStrengths())}, nil
}
