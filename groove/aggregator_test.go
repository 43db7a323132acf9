package groove

import (
	"errors"
	"slices"
	"testing"
)

func scalarSeries(id string, hop float64, values ...float64) *FileSeries {
	fs := NewFileSeries(id, float64(len(values))*hop)
	for i, v := range values {
		w := Window{Index: i, Start: float64(i) * hop, End: float64(i+1) * hop}
		fs.Windows = append(fs.Windows, w)
		fs.Series["bpm"] = append(fs.Series["bpm"], DescriptorValue{Descriptor: "bpm", Kind: KindScalar, Scalar: v, Window: w})
	}
	return fs
}

func TestTimeColumns(t *testing.T) {
	agg := NewAggregator()
	agg.Add(scalarSeries("a.mp3", 20, 1, 2, 3))
	agg.Add(scalarSeries("b.mp3", 20, 1, 2, 3))
	agg.Add(scalarSeries("c.mp3", 20, 1, 2, 3))

	if got := agg.TimeColumns(20); !slices.Equal(got, []string{"0", "20", "40"}) {
		t.Errorf("columns = %v", got)
	}
	if got := agg.TimeColumns(2.5); !slices.Equal(got, []string{"0", "2.5", "5"}) {
		t.Errorf("fractional hop columns = %v", got)
	}

	agg.Add(scalarSeries("d.mp3", 20, 1, 2, 3, 4))
	if agg.MaxWindows() != 4 || len(agg.TimeColumns(20)) != 4 {
		t.Errorf("longest file must set the column count")
	}
}

func TestSummariesKeepOrderAndMean(t *testing.T) {
	agg := NewAggregator()
	agg.Add(scalarSeries("z.mp3", 20, 100, 120, 140))
	agg.Add(NewFileSeries("empty.mp3", 0))
	agg.Add(scalarSeries("a.mp3", 20, 90))

	sums, err := agg.Summaries("bpm")
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2 (empty file skipped)", len(sums))
	}
	if sums[0].RecordingID != "z.mp3" || sums[0].Scalar != 120 {
		t.Errorf("first summary = %+v", sums[0])
	}
	if sums[1].RecordingID != "a.mp3" || sums[1].Scalar != 90 {
		t.Errorf("second summary = %+v", sums[1])
	}
}

func TestVectorSummaries(t *testing.T) {
	fs := NewFileSeries("v.mp3", 40)
	fs.Windows = []Window{{Index: 0, Start: 0, End: 20}, {Index: 1, Start: 20, End: 40}}
	fs.Series["mfcc"] = DescriptorSeries{
		{Descriptor: "mfcc", Kind: KindVector, Vector: []float64{1, 2}},
		{Descriptor: "mfcc", Kind: KindVector, Vector: []float64{3, 6}},
	}
	agg := NewAggregator()
	agg.Add(fs)

	sums, err := agg.Summaries("mfcc")
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if !slices.Equal(sums[0].Vector, []float64{2, 4}) {
		t.Errorf("mean vector = %v, want [2 4]", sums[0].Vector)
	}

	fs.Series["mfcc"] = append(fs.Series["mfcc"], DescriptorValue{Descriptor: "mfcc", Kind: KindVector, Vector: []float64{1}})
	var cfgErr *ConfigurationError
	if _, err := agg.Summaries("mfcc"); !errors.As(err, &cfgErr) {
		t.Errorf("length mismatch err = %v, want ConfigurationError", err)
	}
}

func TestSummariesSkipSubstitutedTail(t *testing.T) {
	// three computed windows and a short substituted tail
	fs := scalarSeries("tail.mp3", 20, 120, 120, 120, 0)
	fs.Series["bpm"][3].Substituted = true

	// every window substituted: the neutral value is all there is
	silent := scalarSeries("silent.mp3", 20, 0, 0)
	for i := range silent.Series["bpm"] {
		silent.Series["bpm"][i].Substituted = true
	}

	agg := NewAggregator()
	agg.Add(fs)
	agg.Add(silent)

	sums, err := agg.Summaries("bpm")
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	if sums[0].Scalar != 120 {
		t.Errorf("tail.mp3 mean = %v, want 120", sums[0].Scalar)
	}
	if sums[1].Scalar != 0 {
		t.Errorf("silent.mp3 mean = %v, want 0", sums[1].Scalar)
	}
}

func TestAddIgnoresSeriesWithoutWindows(t *testing.T) {
	agg := NewAggregator()
	agg.Add(NewFileSeries("empty.mp3", 0))
	agg.Add(nil)
	if len(agg.Files()) != 0 || agg.MaxWindows() != 0 {
		t.Errorf("files = %d, want none", len(agg.Files()))
	}
}
