package groove

import (
	"github.com/RyanBlaney/sonido-groove/groove/config"
)

// Descriptor is re-exported so callers rarely need the config package
type Descriptor = config.Descriptor

// Recording is a decoded mono signal. It is not modified after decoding.
type Recording struct {
	ID         string    `json:"id"`
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the recording length in seconds
func (r *Recording) Duration() float64 {
	if r == nil || r.SampleRate <= 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Window is a time interval of a recording, in seconds
type Window struct {
	Index int     `json:"index" yaml:"index"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Length returns End - Start
func (w Window) Length() float64 {
	return w.End - w.Start
}

// ValueKind tells scalar descriptors from vector descriptors
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindVector
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// DescriptorValue is the value of one descriptor in one window
type DescriptorValue struct {
	Descriptor Descriptor `json:"descriptor"`
	Kind       ValueKind  `json:"kind"`
	Scalar     float64    `json:"scalar,omitempty"`
	Vector     []float64  `json:"vector,omitempty"`
	Window     Window     `json:"window"`

	// Substituted marks a neutral stand-in for a value that could not be computed
	Substituted bool `json:"substituted,omitempty"`
}

// DescriptorSeries holds one value per window, ordered by window index
type DescriptorSeries []DescriptorValue

// FileSeries holds every descriptor series of one recording
type FileSeries struct {
	RecordingID string                          `json:"recording_id"`
	Duration    float64                         `json:"duration"`
	Windows     []Window                        `json:"windows"`
	Series      map[Descriptor]DescriptorSeries `json:"series"`
}

// NewFileSeries creates an empty series set for a recording
func NewFileSeries(recordingID string, duration float64) *FileSeries {
	return &FileSeries{
		RecordingID: recordingID,
		Duration:    duration,
		Series:      make(map[Descriptor]DescriptorSeries),
	}
}

// Value returns the value of descriptor d in window index i
func (fs *FileSeries) Value(d Descriptor, i int) (DescriptorValue, bool) {
	series, ok := fs.Series[d]
	if !ok || i < 0 || i >= len(series) {
		return DescriptorValue{}, false
	}
	return series[i], true
}
