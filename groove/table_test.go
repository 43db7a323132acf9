package groove

import (
	"slices"
	"testing"
)

func TestBuildSeriesTableShortFile(t *testing.T) {
	files := []*FileSeries{
		scalarSeries("long.mp3", 20, 120, 121, 122),
		scalarSeries("short.mp3", 20, 90),
	}
	tbl := BuildSeriesTable(files, "bpm", 20)

	if tbl.Name != "bpm_analysis" || tbl.RowHeader != "File" {
		t.Errorf("name/header = %q/%q", tbl.Name, tbl.RowHeader)
	}
	if !slices.Equal(tbl.Header(), []string{"File", "0", "20", "40"}) {
		t.Errorf("header = %v", tbl.Header())
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if tbl.Rows[0].ID != "long.mp3" || tbl.Rows[1].ID != "short.mp3" {
		t.Errorf("row order = %s, %s", tbl.Rows[0].ID, tbl.Rows[1].ID)
	}

	short := tbl.Rows[1].Cells
	if short[0].Kind != CellNumber || short[0].Number != 90 {
		t.Errorf("short first cell = %+v", short[0])
	}
	if !short[1].IsEmpty() || !short[2].IsEmpty() {
		t.Errorf("missing windows must be empty, got %+v", short[1:])
	}
	if short[1].Format(-1) != "" {
		t.Error("empty cell must format as empty text")
	}
}

func TestBuildLabelTableSkipsSubstituted(t *testing.T) {
	fs := scalarSeries("a.mp3", 20, 0.1, 0.3, 0.9)
	series := fs.Series["bpm"]
	series[1].Substituted = true
	series[1].Scalar = 0

	c, err := NewClassifier(map[Descriptor]Thresholds{"bpm": {Low: 0.2, High: 0.5}})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	tbl, issues, err := BuildLabelTable([]*FileSeries{fs}, "bpm", 20, c)
	if err != nil {
		t.Fatalf("BuildLabelTable: %v", err)
	}

	cells := tbl.Rows[0].Cells
	if cells[0].Label != "Low" || !cells[1].IsEmpty() || cells[2].Label != "High" {
		t.Errorf("cells = %+v", cells)
	}
	if len(issues) != 1 || issues[0].Window.Index != 1 {
		t.Errorf("issues = %+v", issues)
	}

	if _, _, err := BuildLabelTable([]*FileSeries{fs}, "mfcc", 20, c); err == nil {
		t.Error("expected error for descriptor without thresholds")
	}
}

func TestBuildSimilarityTable(t *testing.T) {
	m := &SimilarityMatrix{
		Descriptor: "mfcc",
		IDs:        []string{"a", "b"},
		Values:     [][]float64{{1, 0}, {0.5, 1}},
		Defined:    [][]bool{{true, false}, {true, true}},
	}
	tbl := BuildSimilarityTable(m)

	if tbl.Name != "mfcc_similarity_matrix" || !slices.Equal(tbl.Columns, []string{"a", "b"}) {
		t.Errorf("table = %s %v", tbl.Name, tbl.Columns)
	}
	if !tbl.Rows[0].Cells[1].IsEmpty() {
		t.Error("undefined cell must be empty, not 0")
	}
	if tbl.Rows[1].Cells[0].Number != 0.5 || tbl.Rows[1].ID != "b" {
		t.Errorf("row b = %+v", tbl.Rows[1])
	}
}

func TestBuildWindowTable(t *testing.T) {
	fs := scalarSeries("a.mp3", 20, 120, 118)
	fs.Series["mfcc"] = DescriptorSeries{
		{Descriptor: "mfcc", Kind: KindVector, Vector: []float64{1}},
		{Descriptor: "mfcc", Kind: KindVector, Vector: []float64{1}},
	}
	tbl := BuildWindowTable([]*FileSeries{fs}, []Descriptor{"bpm", "mfcc"})

	if !slices.Equal(tbl.Columns, []string{"Start_Time", "End_Time", "bpm"}) {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	second := tbl.Rows[1].Cells
	if second[0].Number != 20 || second[1].Number != 40 || second[2].Number != 118 {
		t.Errorf("second row = %+v", second)
	}
}

func TestCellFormat(t *testing.T) {
	if got := NumberCell(0.83333333).Format(4); got != "0.8333" {
		t.Errorf("Format(4) = %q", got)
	}
	if got := NumberCell(120).Format(-1); got != "120" {
		t.Errorf("Format(-1) = %q", got)
	}
	if got := LabelCell("Moderate").Format(2); got != "Moderate" {
		t.Errorf("label = %q", got)
	}
}
