package groove

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-groove/groove/config"
)

// Label is an ordered classification result: Low < Moderate < High
type Label int

const (
	LabelLow Label = iota
	LabelModerate
	LabelHigh
)

func (l Label) String() string {
	switch l {
	case LabelLow:
		return "Low"
	case LabelModerate:
		return "Moderate"
	case LabelHigh:
		return "High"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Thresholds is re-exported from config
type Thresholds = config.Thresholds

// Classify maps v onto a label. Both bounds are Moderate.
func Classify(t Thresholds, v float64) (Label, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	switch {
	case v < t.Low:
		return LabelLow, nil
	case v > t.High:
		return LabelHigh, nil
	default:
		return LabelModerate, nil
	}
}

// Classifier holds validated thresholds per descriptor
type Classifier struct {
	thresholds map[Descriptor]Thresholds
}

// NewClassifier validates every threshold pair
func NewClassifier(thresholds map[Descriptor]Thresholds) (*Classifier, error) {
	c := &Classifier{thresholds: make(map[Descriptor]Thresholds, len(thresholds))}
	for d, t := range thresholds {
		if err := t.Validate(); err != nil {
			return nil, &ConfigurationError{Field: "thresholds." + string(d), Reason: err.Error()}
		}
		c.thresholds[d] = t
	}
	return c, nil
}

// Has reports whether d has thresholds
func (c *Classifier) Has(d Descriptor) bool {
	_, ok := c.thresholds[d]
	return ok
}

// Classify labels a value of descriptor d
func (c *Classifier) Classify(d Descriptor, v float64) (Label, error) {
	t, ok := c.thresholds[d]
	if !ok {
		return 0, &ConfigurationError{Field: "thresholds." + string(d), Reason: "no thresholds configured"}
	}
	return Classify(t, v)
}
