package groove

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-groove/groove/config"
)

func TestClassifyBoundaries(t *testing.T) {
	th := Thresholds{Low: 0.2, High: 0.5}
	tests := []struct {
		v    float64
		want Label
	}{
		{0.19, LabelLow},
		{0.2, LabelModerate},
		{0.35, LabelModerate},
		{0.5, LabelModerate},
		{0.51, LabelHigh},
		{-1, LabelLow},
	}
	for _, tt := range tests {
		got, err := Classify(th, tt.v)
		if err != nil {
			t.Fatalf("Classify(%v): %v", tt.v, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Classify(th, v); !errors.Is(err, ErrNonFinite) {
			t.Errorf("Classify(%v) err = %v, want ErrNonFinite", v, err)
		}
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	th := Thresholds{Low: 0.05, High: 0.15}
	prev := LabelLow
	for v := -0.1; v <= 0.3; v += 0.001 {
		got, err := Classify(th, v)
		if err != nil {
			t.Fatalf("Classify(%v): %v", v, err)
		}
		if got < prev {
			t.Fatalf("label dropped from %v to %v at %v", prev, got, v)
		}
		prev = got
	}
}

func TestClassifierFromConfig(t *testing.T) {
	c, err := NewClassifier(config.DefaultConfig().Thresholds)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if got, _ := c.Classify(config.DescriptorTempoStability, 0.2); got != LabelHigh {
		t.Errorf("tempo stability 0.2 = %v, want High", got)
	}
	if got, _ := c.Classify(config.DescriptorOnsetVariability, 0.1); got != LabelLow {
		t.Errorf("onset variability 0.1 = %v, want Low", got)
	}
	if c.Has(config.DescriptorBPM) {
		t.Error("bpm has no default thresholds")
	}
	if _, err := c.Classify(config.DescriptorBPM, 120); err == nil {
		t.Error("expected error classifying a descriptor without thresholds")
	}

	var cfgErr *ConfigurationError
	if _, err := NewClassifier(map[Descriptor]Thresholds{"x": {Low: 1, High: 1}}); !errors.As(err, &cfgErr) {
		t.Errorf("equal bounds err = %v, want ConfigurationError", err)
	}
}

func TestLabelString(t *testing.T) {
	if LabelLow.String() != "Low" || LabelModerate.String() != "Moderate" || LabelHigh.String() != "High" {
		t.Error("unexpected label names")
	}
}
