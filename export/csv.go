// Package export writes analysis tables and the run manifest to disk.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/logging"
)

// CSVSink writes each table to <Dir>/<table name>.csv
type CSVSink struct {
	Dir      string
	Decimals int // < 0 keeps full precision

	logger  logging.Logger
	written []string
}

var _ groove.Sink = (*CSVSink)(nil)

// NewCSVSink creates a sink rooted at dir
func NewCSVSink(dir string, decimals int) *CSVSink {
	return &CSVSink{
		Dir:      dir,
		Decimals: decimals,
		logger: logging.WithFields(logging.Fields{
			"component": "csv_sink",
		}),
	}
}

// Written returns the paths written so far, in order
func (s *CSVSink) Written() []string {
	return s.written
}

// Write stores t as CSV. Empty cells are written as empty fields.
func (s *CSVSink) Write(ctx context.Context, t *groove.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.Dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header()); err != nil {
		return err
	}
	record := make([]string, len(t.Columns)+1)
	for _, row := range t.Rows {
		record[0] = row.ID
		for i, c := range row.Cells {
			record[i+1] = c.Format(s.Decimals)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	s.written = append(s.written, path)
	if s.logger != nil {
		s.logger.WithContext(ctx).Debug("Table written", logging.Fields{
			"table": t.Name,
			"path":  path,
			"rows":  len(t.Rows),
		})
	}
	return nil
}

// ReadCSV loads a table written by CSVSink. Fields that parse as numbers
// become numeric cells, empty fields become empty cells and anything else
// becomes a label.
func ReadCSV(path string) (*groove.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	header := records[0]
	t := &groove.Table{
		Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		RowHeader: header[0],
		Columns:   header[1:],
		Rows:      make([]groove.Row, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		row := groove.Row{ID: rec[0], Cells: make([]groove.Cell, len(rec)-1)}
		for i, field := range rec[1:] {
			row.Cells[i] = parseCell(field)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, t.Validate()
}

func parseCell(field string) groove.Cell {
	if field == "" {
		return groove.Cell{}
	}
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return groove.NumberCell(v)
	}
	return groove.LabelCell(field)
}
