package groove

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/sonido-groove/groove/config"
	"github.com/RyanBlaney/sonido-groove/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Decoder turns a file into a mono recording
type Decoder interface {
	Decode(ctx context.Context, path string) (*Recording, error)
}

// Sink receives finished tables
type Sink interface {
	Write(ctx context.Context, t *Table) error
}

// FileFailure is an input file that produced no series
type FileFailure struct {
	Path string
	Err  error
}

// Report collects everything that went wrong, or was worked around, in a run
type Report struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Analyzed      []string
	Empty         []string // decoded but too short for a single window
	Failures      []FileFailure
	Substitutions []SubstitutionEvent
	LabelIssues   []LabelIssue
	CellErrors    []error
	MatrixErrors  []error
}

// Result is the output of one run: the per-file series, the similarity
// matrices and every table in write order
type Result struct {
	Aggregator *Aggregator
	Matrices   []*SimilarityMatrix
	Tables     []*Table
	Report     *Report
}

// Analyzer runs the whole pipeline over a list of files
type Analyzer struct {
	cfg        *config.Config
	decoder    Decoder
	computer   *DescriptorComputer
	classifier *Classifier
	onFileDone func(path string, err error)
	logger     logging.Logger
}

// NewAnalyzer validates cfg and binds the algorithms for cfg.Descriptors
func NewAnalyzer(cfg *config.Config, decoder Decoder, algorithms []FeatureAlgorithm) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if decoder == nil {
		return nil, &ConfigurationError{Field: "decoder", Reason: "missing"}
	}

	byName := make(map[Descriptor]FeatureAlgorithm, len(algorithms))
	for _, alg := range algorithms {
		byName[alg.Name()] = alg
	}
	selected := make([]FeatureAlgorithm, 0, len(cfg.Descriptors))
	for _, d := range cfg.Descriptors {
		alg, ok := byName[d]
		if !ok {
			return nil, &ConfigurationError{Field: "descriptors", Reason: fmt.Sprintf("no algorithm for %q", d)}
		}
		selected = append(selected, alg)
	}

	computer, err := NewDescriptorComputer(selected, cfg.Selection)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		cfg:        cfg,
		decoder:    decoder,
		computer:   computer,
		classifier: classifier,
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}, nil
}

// OnFileDone registers a callback invoked once per file, from worker goroutines
func (a *Analyzer) OnFileDone(fn func(path string, err error)) {
	a.onFileDone = fn
}

type fileResult struct {
	series *FileSeries
	subs   []SubstitutionEvent
	err    error
}

// Run decodes and analyzes paths on at most cfg.Workers goroutines. A file
// that fails is reported and skipped. Rows keep the order of paths. Only
// context cancellation makes Run itself fail.
func (a *Analyzer) Run(ctx context.Context, paths []string) (*Result, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": report.RunID})

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Run",
		"files":    len(paths),
		"workers":  a.cfg.Workers,
	})
	logger.Info("Starting analysis")

	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series, subs, err := a.analyzeFile(gctx, path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = fileResult{series: series, subs: subs, err: err}
			if a.onFileDone != nil {
				a.onFileDone(path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	agg := NewAggregator()
	for i, r := range results {
		if r.err != nil {
			report.Failures = append(report.Failures, FileFailure{Path: paths[i], Err: r.err})
			logger.Error(r.err, "File skipped", logging.Fields{"path": paths[i]})
			continue
		}
		if len(r.series.Windows) == 0 {
			report.Empty = append(report.Empty, paths[i])
			logger.Warn("Recording has no windows, no rows written", logging.Fields{
				"path":      paths[i],
				"recording": r.series.RecordingID,
				"duration":  r.series.Duration,
			})
			continue
		}
		agg.Add(r.series)
		report.Analyzed = append(report.Analyzed, paths[i])
		report.Substitutions = append(report.Substitutions, r.subs...)
	}

	result := &Result{Aggregator: agg, Report: report}
	a.buildSimilarity(result)
	a.buildTables(result)

	report.FinishedAt = time.Now()
	logger.Info("Analysis finished", logging.Fields{
		"analyzed":      len(report.Analyzed),
		"empty":         len(report.Empty),
		"failed":        len(report.Failures),
		"substitutions": len(report.Substitutions),
		"tables":        len(result.Tables),
	})

	return result, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, path string) (*FileSeries, []SubstitutionEvent, error) {
	rec, err := a.decoder.Decode(ctx, path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}
	if rec.ID == "" {
		rec.ID = filepath.Base(path)
	}
	if rec.SampleRate <= 0 {
		return nil, nil, &DecodeError{Path: path, Err: fmt.Errorf("invalid sample rate %d", rec.SampleRate)}
	}

	a.logger.WithContext(ctx).Debug("Decoded recording", logging.Fields{
		"recording":   rec.ID,
		"sample_rate": rec.SampleRate,
		"duration":    rec.Duration(),
	})

	return a.computer.ComputeFile(ctx, rec, a.cfg.WindowLength, a.cfg.HopLength)
}

func (a *Analyzer) buildSimilarity(result *Result) {
	for _, d := range a.cfg.Similarity {
		summaries, err := result.Aggregator.Summaries(d)
		if err != nil {
			result.Report.MatrixErrors = append(result.Report.MatrixErrors, fmt.Errorf("%s similarity: %w", d, err))
			continue
		}
		m, err := BuildSimilarityMatrix(d, summaries)
		if err != nil {
			result.Report.MatrixErrors = append(result.Report.MatrixErrors, fmt.Errorf("%s similarity: %w", d, err))
			continue
		}
		result.Report.CellErrors = append(result.Report.CellErrors, m.CellErrors...)
		result.Matrices = append(result.Matrices, m)
	}
}

func (a *Analyzer) buildTables(result *Result) {
	files := result.Aggregator.Files()
	hop := a.cfg.HopLength

	for _, d := range a.computer.Descriptors() {
		alg, _ := a.computer.Algorithm(d)
		if alg.Kind() != KindScalar {
			continue
		}
		result.Tables = append(result.Tables, BuildSeriesTable(files, d, hop))
	}

	for _, d := range a.computer.Descriptors() {
		if !a.classifier.Has(d) {
			continue
		}
		t, issues, err := BuildLabelTable(files, d, hop, a.classifier)
		if err != nil {
			a.logger.Error(err, "Skipping classification table", logging.Fields{"descriptor": d})
			continue
		}
		result.Tables = append(result.Tables, t)
		result.Report.LabelIssues = append(result.Report.LabelIssues, issues...)
	}

	result.Tables = append(result.Tables, BuildWindowTable(files, a.computer.Descriptors()))

	for _, m := range result.Matrices {
		result.Tables = append(result.Tables, BuildSimilarityTable(m))
	}
}

// Export hands every table of result to sink in order. Nothing is written
// unless every table is well formed.
func Export(ctx context.Context, sink Sink, result *Result) error {
	for _, t := range result.Tables {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, t := range result.Tables {
		if err := sink.Write(ctx, t); err != nil {
			return fmt.Errorf("failed to write table %s: %w", t.Name, err)
		}
	}
	return nil
}
