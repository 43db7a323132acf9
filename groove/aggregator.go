package groove

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Summary is the whole-file value of one descriptor
type Summary struct {
	RecordingID string
	Kind        ValueKind
	Scalar      float64
	Vector      []float64
}

// Aggregator collects per-file series in discovery order
type Aggregator struct {
	files []*FileSeries
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends a file's series. Row order of every table follows Add order.
// Series without windows are ignored.
func (a *Aggregator) Add(fs *FileSeries) {
	if fs != nil && len(fs.Windows) > 0 {
		a.files = append(a.files, fs)
	}
}

// Files returns the series in the order they were added
func (a *Aggregator) Files() []*FileSeries {
	return a.files
}

// MaxWindows returns the longest window count over all files
func (a *Aggregator) MaxWindows() int {
	return maxWindows(a.files)
}

// TimeColumns returns the start offsets 0, hop, 2*hop, ... as strings, one
// per window of the longest file
func (a *Aggregator) TimeColumns(hopLength float64) []string {
	return timeColumns(maxWindows(a.files), hopLength)
}

// Summaries returns the arithmetic mean of descriptor d over the windows of
// each file, component-wise for vectors. Substituted windows only count when
// a file has no computed value at all. Files without windows are skipped.
func (a *Aggregator) Summaries(d Descriptor) ([]Summary, error) {
	var out []Summary
	for _, fs := range a.files {
		series := fs.Series[d]
		if len(series) == 0 {
			continue
		}
		summary, err := summarize(fs.RecordingID, d, series)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func summarize(recordingID string, d Descriptor, series DescriptorSeries) (Summary, error) {
	series = computedOnly(series)
	kind := series[0].Kind
	summary := Summary{RecordingID: recordingID, Kind: kind}

	switch kind {
	case KindScalar:
		values := make([]float64, len(series))
		for i, v := range series {
			values[i] = v.Scalar
		}
		summary.Scalar = stat.Mean(values, nil)

	case KindVector:
		dim := len(series[0].Vector)
		column := make([]float64, len(series))
		summary.Vector = make([]float64, dim)
		for _, v := range series {
			if v.Kind != KindVector || len(v.Vector) != dim {
				return Summary{}, &ConfigurationError{
					Field:  string(d),
					Reason: fmt.Sprintf("%s: window %d has vector length %d, want %d", recordingID, v.Window.Index, len(v.Vector), dim),
				}
			}
		}
		for k := range dim {
			for i, v := range series {
				column[i] = v.Vector[k]
			}
			summary.Vector[k] = stat.Mean(column, nil)
		}

	default:
		return Summary{}, fmt.Errorf("unknown value kind %d for %s", kind, d)
	}

	return summary, nil
}

// computedOnly drops substituted values unless nothing else is left
func computedOnly(series DescriptorSeries) DescriptorSeries {
	computed := make(DescriptorSeries, 0, len(series))
	for _, v := range series {
		if !v.Substituted {
			computed = append(computed, v)
		}
	}
	if len(computed) == 0 {
		return series
	}
	return computed
}

func maxWindows(files []*FileSeries) int {
	n := 0
	for _, fs := range files {
		n = max(n, len(fs.Windows))
	}
	return n
}

func timeColumns(n int, hopLength float64) []string {
	cols := make([]string, n)
	for k := range n {
		cols[k] = strconv.FormatFloat(float64(k)*hopLength, 'f', -1, 64)
	}
	return cols
}
