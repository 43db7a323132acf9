package groove

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/RyanBlaney/sonido-groove/groove/config"
)

type fakeDecoder struct {
	recordings map[string]*Recording
}

func (d *fakeDecoder) Decode(_ context.Context, path string) (*Recording, error) {
	rec, ok := d.recordings[path]
	if !ok {
		return nil, errors.New("unsupported file")
	}
	return rec, nil
}

type memSink struct {
	mu     sync.Mutex
	tables []*Table
}

func (s *memSink) Write(_ context.Context, t *Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t)
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Descriptors = []Descriptor{config.DescriptorBPM, config.DescriptorMFCC}
	cfg.Similarity = []Descriptor{config.DescriptorMFCC, config.DescriptorBPM}
	cfg.Thresholds = map[Descriptor]Thresholds{config.DescriptorBPM: {Low: 90, High: 110}}
	cfg.Workers = 2
	return cfg
}

func testAlgorithms() []FeatureAlgorithm {
	mfcc := &fakeAlgorithm{name: config.DescriptorMFCC, kind: KindVector, dim: 2, fn: func(s []float64, _ int) ([]float64, error) {
		return []float64{s[0], 1}, nil
	}}
	return []FeatureAlgorithm{meanAlgorithm(config.DescriptorBPM), mfcc}
}

func TestAnalyzerRun(t *testing.T) {
	decoder := &fakeDecoder{recordings: map[string]*Recording{
		"music/a.mp3": constantRecording("", 60, 10, 120),
		"music/b.mp3": constantRecording("", 60, 10, 120),
		"music/c.mp3": constantRecording("", 60, 10, 100),
	}}
	paths := []string{"music/a.mp3", "music/broken.mp3", "music/b.mp3", "music/c.mp3"}

	analyzer, err := NewAnalyzer(testConfig(), decoder, testAlgorithms())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	var mu sync.Mutex
	done := 0
	analyzer.OnFileDone(func(string, error) {
		mu.Lock()
		done++
		mu.Unlock()
	})

	result, err := analyzer.Run(t.Context(), paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if done != len(paths) {
		t.Errorf("progress callback ran %d times, want %d", done, len(paths))
	}

	report := result.Report
	if report.RunID == "" {
		t.Error("run id missing")
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != "music/broken.mp3" {
		t.Fatalf("failures = %+v", report.Failures)
	}
	var decErr *DecodeError
	if !errors.As(report.Failures[0].Err, &decErr) {
		t.Errorf("failure is not a DecodeError: %v", report.Failures[0].Err)
	}

	var ids []string
	for _, fs := range result.Aggregator.Files() {
		ids = append(ids, fs.RecordingID)
	}
	if !slices.Equal(ids, []string{"a.mp3", "b.mp3", "c.mp3"}) {
		t.Errorf("row order = %v", ids)
	}
	if cols := result.Aggregator.TimeColumns(20); !slices.Equal(cols, []string{"0", "20", "40"}) {
		t.Errorf("time columns = %v", cols)
	}

	if len(result.Matrices) != 2 {
		t.Fatalf("matrices = %d, want 2", len(result.Matrices))
	}
	mfcc, bpm := result.Matrices[0], result.Matrices[1]
	if v, _ := mfcc.At(0, 1); math.Abs(v-1) > 1e-12 {
		t.Errorf("identical mfcc similarity = %v, want 1", v)
	}
	if v, _ := bpm.At(0, 1); v != 1 {
		t.Errorf("120/120 bpm similarity = %v, want 1", v)
	}
	if v, _ := bpm.At(2, 0); math.Abs(v-0.8333) > 1e-4 {
		t.Errorf("100/120 bpm similarity = %v, want 0.8333", v)
	}

	var names []string
	for _, tbl := range result.Tables {
		names = append(names, tbl.Name)
	}
	want := []string{"bpm_analysis", "bpm_classification", "window_analysis", "mfcc_similarity_matrix", "bpm_similarity_matrix"}
	if !slices.Equal(names, want) {
		t.Errorf("tables = %v, want %v", names, want)
	}

	labels := result.Tables[1].Rows[2].Cells
	if labels[0].Label != "Moderate" {
		t.Errorf("c.mp3 label = %+v, want Moderate", labels[0])
	}

	sink := &memSink{}
	if err := Export(t.Context(), sink, result); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(sink.tables) != len(result.Tables) {
		t.Errorf("sink got %d tables", len(sink.tables))
	}
}

func TestAnalyzerRejectsMissingAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.Descriptors = append(cfg.Descriptors, config.DescriptorSyncopation)

	var cfgErr *ConfigurationError
	if _, err := NewAnalyzer(cfg, &fakeDecoder{}, testAlgorithms()); !errors.As(err, &cfgErr) {
		t.Errorf("err = %v, want ConfigurationError", err)
	}
}

func TestAnalyzerHonoursCancellation(t *testing.T) {
	analyzer, err := NewAnalyzer(testConfig(), &fakeDecoder{recordings: map[string]*Recording{
		"a.mp3": constantRecording("a.mp3", 60, 10, 1),
	}}, testAlgorithms())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := analyzer.Run(ctx, []string{"a.mp3"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzerSkipsRecordingWithoutWindows(t *testing.T) {
	decoder := &fakeDecoder{recordings: map[string]*Recording{
		"a.mp3":     constantRecording("a.mp3", 60, 10, 120),
		"empty.mp3": {ID: "empty.mp3", SampleRate: 10},
	}}
	analyzer, err := NewAnalyzer(testConfig(), decoder, testAlgorithms())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	result, err := analyzer.Run(t.Context(), []string{"a.mp3", "empty.mp3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := result.Report
	if !slices.Equal(report.Analyzed, []string{"a.mp3"}) {
		t.Errorf("analyzed = %v, want [a.mp3]", report.Analyzed)
	}
	if !slices.Equal(report.Empty, []string{"empty.mp3"}) {
		t.Errorf("empty = %v, want [empty.mp3]", report.Empty)
	}
	if len(report.Failures) != 0 {
		t.Errorf("failures = %+v", report.Failures)
	}

	for _, tbl := range result.Tables {
		for _, row := range tbl.Rows {
			if row.ID == "empty.mp3" {
				t.Errorf("table %s has a row for a recording without windows", tbl.Name)
			}
		}
	}
}

// countingSink records how many tables reached it
type countingSink struct {
	writes int
}

func (s *countingSink) Write(context.Context, *Table) error {
	s.writes++
	return nil
}

func TestExportValidatesBeforeWriting(t *testing.T) {
	good := &Table{Name: "good", RowHeader: "File", Columns: []string{"0"}, Rows: []Row{{ID: "a", Cells: []Cell{NumberCell(1)}}}}
	ragged := &Table{Name: "ragged", RowHeader: "File", Columns: []string{"0", "20"}, Rows: []Row{{ID: "a", Cells: []Cell{NumberCell(1)}}}}

	sink := &countingSink{}
	if err := Export(t.Context(), sink, &Result{Tables: []*Table{good, ragged}}); err == nil {
		t.Fatal("expected error for ragged table")
	}
	if sink.writes != 0 {
		t.Errorf("sink received %d tables before validation failed", sink.writes)
	}
}
