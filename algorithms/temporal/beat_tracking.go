package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
)

// BeatTracker places beats on an onset envelope by dynamic programming
// (Ellis, "Beat Tracking by Dynamic Programming", 2007). Each frame's score
// is its onset strength plus the best predecessor score, penalised by how far
// the gap strays from the target beat period.
type BeatTracker struct {
	tightness float64
}

// NewBeatTracker creates a beat tracker with the usual tightness of 100
func NewBeatTracker() *BeatTracker {
	return &BeatTracker{tightness: 100}
}

// Track returns beat positions as envelope frame indices in increasing order.
// An envelope without onsets yields no beats and no error.
func (bt *BeatTracker) Track(env *OnsetEnvelope, bpm float64) ([]int, error) {
	if env == nil || env.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid onset envelope")
	}
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return nil, fmt.Errorf("invalid tempo: %v BPM", bpm)
	}

	n := len(env.Strength)
	if n < 2 {
		return []int{}, nil
	}

	std := math.Sqrt(common.PopVariance(env.Strength) * float64(n) / float64(n-1))
	if std == 0 {
		return []int{}, nil
	}

	period := 60.0 * env.FrameRate / bpm
	normalized := make([]float64, n)
	for i, v := range env.Strength {
		normalized[i] = v / std
	}

	localScore := bt.localScore(normalized, period)
	cumScore, backlink := bt.forward(localScore, period)

	last := lastBeat(cumScore)
	if last < 0 {
		return []int{}, nil
	}

	var beats []int
	for i := last; i >= 0; i = backlink[i] {
		beats = append(beats, i)
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return trimBeats(localScore, beats), nil
}

// localScore smooths the envelope with a Gaussian a fraction of a period wide
func (bt *BeatTracker) localScore(onset []float64, period float64) []float64 {
	half := int(math.Round(period))
	kernel := make([]float64, 2*half+1)
	for k := -half; k <= half; k++ {
		x := float64(k) * 32.0 / period
		kernel[k+half] = math.Exp(-0.5 * x * x)
	}

	out := make([]float64, len(onset))
	for i := range onset {
		sum := 0.0
		for k := -half; k <= half; k++ {
			if j := i + k; j >= 0 && j < len(onset) {
				sum += onset[j] * kernel[k+half]
			}
		}
		out[i] = sum
	}
	return out
}

// forward runs the dynamic program and returns cumulative scores and the
// best predecessor of every frame (-1 for none)
func (bt *BeatTracker) forward(localScore []float64, period float64) ([]float64, []int) {
	n := len(localScore)
	cumScore := make([]float64, n)
	backlink := make([]int, n)

	minGap := max(1, int(math.Round(period/2)))
	maxGap := max(minGap, int(math.Round(2*period)))

	maxLocal := 0.0
	for _, v := range localScore {
		maxLocal = math.Max(maxLocal, v)
	}

	// Frames before the first real onset cannot anchor a beat chain
	started := false
	for i := range n {
		backlink[i] = -1
		cumScore[i] = localScore[i]

		best := math.Inf(-1)
		bestPrev := -1
		for gap := minGap; gap <= maxGap; gap++ {
			prev := i - gap
			if prev < 0 {
				break
			}
			penalty := math.Log(float64(gap) / period)
			score := cumScore[prev] - bt.tightness*penalty*penalty
			if score > best {
				best = score
				bestPrev = prev
			}
		}

		if started && bestPrev >= 0 {
			cumScore[i] += best
			backlink[i] = bestPrev
		}
		if !started && localScore[i] >= 0.01*maxLocal {
			started = true
		}
	}

	return cumScore, backlink
}

// lastBeat picks the final local maximum of the cumulative score that reaches
// half the median peak height
func lastBeat(cumScore []float64) int {
	var peaks []int
	for i := range cumScore {
		left := i == 0 || cumScore[i] > cumScore[i-1]
		right := i == len(cumScore)-1 || cumScore[i] >= cumScore[i+1]
		if left && right {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) == 0 {
		return -1
	}

	heights := make([]float64, len(peaks))
	for i, p := range peaks {
		heights[i] = cumScore[p]
	}
	threshold := 0.5 * common.Median(heights)

	for i := len(peaks) - 1; i >= 0; i-- {
		if cumScore[peaks[i]] > threshold {
			return peaks[i]
		}
	}
	return -1
}

// trimBeats drops weak beats at either end of the chain
func trimBeats(localScore []float64, beats []int) []int {
	if len(beats) == 0 {
		return beats
	}

	strengths := make([]float64, len(beats))
	for i, b := range beats {
		strengths[i] = localScore[b]
	}
	threshold := 0.5 * math.Sqrt(common.SumSquares(strengths)/float64(len(strengths)))

	first, last := 0, len(beats)-1
	for first <= last && strengths[first] <= threshold {
		first++
	}
	for last >= first && strengths[last] <= threshold {
		last--
	}
	return beats[first : last+1]
}
