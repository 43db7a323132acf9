package groove

import (
	"errors"
	"fmt"
	"strconv"
)

// CellKind tells empty, numeric and label cells apart
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellLabel
)

// Cell is one table entry. An empty cell is never written as 0.
type Cell struct {
	Kind   CellKind
	Number float64
	Label  string
}

// NumberCell creates a numeric cell
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// LabelCell creates a text cell
func LabelCell(s string) Cell {
	return Cell{Kind: CellLabel, Label: s}
}

// IsEmpty reports whether the cell has no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Format renders the cell; decimals < 0 keeps the shortest exact representation
func (c Cell) Format(decimals int) string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', decimals, 64)
	case CellLabel:
		return c.Label
	default:
		return ""
	}
}

// Row is a table row keyed by its identifier
type Row struct {
	ID    string
	Cells []Cell
}

// Table is a named rectangular result: a header for the row identifiers, the
// column names and one row per entity. Every row has len(Columns) cells.
type Table struct {
	Name      string
	RowHeader string
	Columns   []string
	Rows      []Row
}

// Header returns the row header followed by the column names
func (t *Table) Header() []string {
	return append([]string{t.RowHeader}, t.Columns...)
}

// Validate checks that the table is rectangular
func (t *Table) Validate() error {
	for _, r := range t.Rows {
		if len(r.Cells) != len(t.Columns) {
			return fmt.Errorf("table %s: row %s has %d cells, want %d", t.Name, r.ID, len(r.Cells), len(t.Columns))
		}
	}
	return nil
}

// BuildSeriesTable lays out descriptor d with one row per file and one
// column per time offset. Shorter files leave their trailing cells empty.
func BuildSeriesTable(files []*FileSeries, d Descriptor, hopLength float64) *Table {
	cols := timeColumns(maxWindows(files), hopLength)
	t := &Table{
		Name:      string(d) + "_analysis",
		RowHeader: "File",
		Columns:   cols,
		Rows:      make([]Row, 0, len(files)),
	}

	for _, fs := range files {
		cells := make([]Cell, len(cols))
		for i, v := range fs.Series[d] {
			if i >= len(cells) || v.Kind != KindScalar {
				continue
			}
			cells[i] = NumberCell(v.Scalar)
		}
		t.Rows = append(t.Rows, Row{ID: fs.RecordingID, Cells: cells})
	}
	return t
}

// LabelIssue explains why a label cell was left empty
type LabelIssue struct {
	RecordingID string
	Window      Window
	Descriptor  Descriptor
	Err         error
}

// errSubstitutedValue marks windows whose value is a neutral stand-in
var errSubstitutedValue = errors.New("value was substituted")

// BuildLabelTable classifies descriptor d in every window. Substituted or
// unclassifiable windows stay empty and are returned as issues.
func BuildLabelTable(files []*FileSeries, d Descriptor, hopLength float64, c *Classifier) (*Table, []LabelIssue, error) {
	if !c.Has(d) {
		return nil, nil, &ConfigurationError{Field: "thresholds." + string(d), Reason: "no thresholds configured"}
	}

	cols := timeColumns(maxWindows(files), hopLength)
	t := &Table{
		Name:      string(d) + "_classification",
		RowHeader: "File",
		Columns:   cols,
		Rows:      make([]Row, 0, len(files)),
	}

	var issues []LabelIssue
	for _, fs := range files {
		cells := make([]Cell, len(cols))
		for i, v := range fs.Series[d] {
			if i >= len(cells) || v.Kind != KindScalar {
				continue
			}
			if v.Substituted {
				issues = append(issues, LabelIssue{RecordingID: fs.RecordingID, Window: v.Window, Descriptor: d, Err: errSubstitutedValue})
				continue
			}
			label, err := c.Classify(d, v.Scalar)
			if err != nil {
				issues = append(issues, LabelIssue{RecordingID: fs.RecordingID, Window: v.Window, Descriptor: d, Err: err})
				continue
			}
			cells[i] = LabelCell(label.String())
		}
		t.Rows = append(t.Rows, Row{ID: fs.RecordingID, Cells: cells})
	}
	return t, issues, nil
}

// BuildSimilarityTable renders a similarity matrix as a square table.
// Undefined cells stay empty.
func BuildSimilarityTable(m *SimilarityMatrix) *Table {
	t := &Table{
		Name:      string(m.Descriptor) + "_similarity_matrix",
		RowHeader: "File",
		Columns:   append([]string(nil), m.IDs...),
		Rows:      make([]Row, len(m.IDs)),
	}
	for i, id := range m.IDs {
		cells := make([]Cell, len(m.IDs))
		for j := range m.IDs {
			if v, ok := m.At(i, j); ok {
				cells[j] = NumberCell(v)
			}
		}
		t.Rows[i] = Row{ID: id, Cells: cells}
	}
	return t
}

// BuildWindowTable writes one row per (file, window) with the window bounds
// and every scalar descriptor in ds. Vector descriptors are skipped.
func BuildWindowTable(files []*FileSeries, ds []Descriptor) *Table {
	t := &Table{
		Name:      "window_analysis",
		RowHeader: "File",
		Columns:   []string{"Start_Time", "End_Time"},
	}

	var scalars []Descriptor
	for _, d := range ds {
		if isScalarSeries(files, d) {
			scalars = append(scalars, d)
			t.Columns = append(t.Columns, string(d))
		}
	}

	for _, fs := range files {
		for i, win := range fs.Windows {
			cells := make([]Cell, 0, len(t.Columns))
			cells = append(cells, NumberCell(win.Start), NumberCell(win.End))
			for _, d := range scalars {
				if v, ok := fs.Value(d, i); ok && v.Kind == KindScalar {
					cells = append(cells, NumberCell(v.Scalar))
				} else {
					cells = append(cells, Cell{})
				}
			}
			t.Rows = append(t.Rows, Row{ID: fs.RecordingID, Cells: cells})
		}
	}
	return t
}

func isScalarSeries(files []*FileSeries, d Descriptor) bool {
	for _, fs := range files {
		if series := fs.Series[d]; len(series) > 0 {
			return series[0].Kind == KindScalar
		}
	}
	return false
}
