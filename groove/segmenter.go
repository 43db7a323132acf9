package groove

import (
	"fmt"
	"iter"
	"math"
)

// ValidateSegmentation checks window and hop lengths
func ValidateSegmentation(windowLength, hopLength float64) error {
	if !(windowLength > 0) || math.IsInf(windowLength, 0) {
		return &ConfigurationError{Field: "window_length", Reason: fmt.Sprintf("must be positive and finite, got %v", windowLength)}
	}
	if !(hopLength > 0) || math.IsInf(hopLength, 0) {
		return &ConfigurationError{Field: "hop_length", Reason: fmt.Sprintf("must be positive and finite, got %v", hopLength)}
	}
	return nil
}

// Segment yields windows starting at k*hop for every k with k*hop < duration.
// Each window ends at start+windowLength, clamped to duration. A duration of
// zero or less yields nothing. The sequence can be ranged over repeatedly.
// Lengths are assumed valid, see ValidateSegmentation.
func Segment(duration, windowLength, hopLength float64) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if !(duration > 0) || !(hopLength > 0) || !(windowLength > 0) {
			return
		}
		for k := 0; ; k++ {
			// multiply rather than accumulate so start offsets do not drift
			start := float64(k) * hopLength
			if start >= duration {
				return
			}
			w := Window{
				Index: k,
				Start: start,
				End:   math.Min(start+windowLength, duration),
			}
			if !yield(w) {
				return
			}
		}
	}
}

// Windows collects Segment into a slice
func Windows(duration, windowLength, hopLength float64) []Window {
	var out []Window
	for w := range Segment(duration, windowLength, hopLength) {
		out = append(out, w)
	}
	return out
}

// sampleRange converts a window to a half-open sample range [lo, hi) of a
// buffer with n samples
func sampleRange(w Window, sampleRate, n int) (int, int) {
	sr := float64(sampleRate)
	lo := int(math.Round(w.Start * sr))
	hi := int(math.Round(w.End * sr))
	lo = min(max(lo, 0), n)
	hi = min(max(hi, lo), n)
	return lo, hi
}
