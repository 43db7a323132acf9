package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/groove/config"
	"gopkg.in/yaml.v3"
)

// Manifest summarizes one run next to its tables
type Manifest struct {
	RunID         string         `yaml:"run_id"`
	StartedAt     time.Time      `yaml:"started_at"`
	FinishedAt    time.Time      `yaml:"finished_at"`
	Config        *config.Config `yaml:"config"`
	Tables        []string       `yaml:"tables"`
	Analyzed      []string       `yaml:"analyzed"`
	Empty         []string       `yaml:"empty,omitempty"`
	Failures      []FailureEntry `yaml:"failures,omitempty"`
	Substitutions []Substitution `yaml:"substitutions,omitempty"`
	LabelIssues   []string       `yaml:"label_issues,omitempty"`
	CellErrors    []string       `yaml:"similarity_cell_errors,omitempty"`
	MatrixErrors  []string       `yaml:"similarity_matrix_errors,omitempty"`
}

// FailureEntry is a file that was skipped
type FailureEntry struct {
	Path  string `yaml:"path"`
	Error string `yaml:"error"`
}

// Substitution is a window value replaced by the neutral value
type Substitution struct {
	Recording  string            `yaml:"recording"`
	Window     int               `yaml:"window"`
	Start      float64           `yaml:"start"`
	End        float64           `yaml:"end"`
	Descriptor config.Descriptor `yaml:"descriptor"`
	Reason     string            `yaml:"reason"`
}

// NewManifest collects the report of result
func NewManifest(cfg *config.Config, result *groove.Result) *Manifest {
	r := result.Report
	m := &Manifest{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Config:     cfg,
		Analyzed:   r.Analyzed,
		Empty:      r.Empty,
	}
	for _, t := range result.Tables {
		m.Tables = append(m.Tables, t.Name+".csv")
	}
	for _, f := range r.Failures {
		m.Failures = append(m.Failures, FailureEntry{Path: f.Path, Error: f.Err.Error()})
	}
	for _, s := range r.Substitutions {
		m.Substitutions = append(m.Substitutions, Substitution{
			Recording:  s.RecordingID,
			Window:     s.Window.Index,
			Start:      s.Window.Start,
			End:        s.Window.End,
			Descriptor: s.Descriptor,
			Reason:     s.Reason,
		})
	}
	for _, li := range r.LabelIssues {
		m.LabelIssues = append(m.LabelIssues, fmt.Sprintf("%s window %d %s: %v", li.RecordingID, li.Window.Index, li.Descriptor, li.Err))
	}
	m.CellErrors = errorStrings(r.CellErrors)
	m.MatrixErrors = errorStrings(r.MatrixErrors)
	return m
}

// WriteManifest writes the run manifest of result as YAML to path
func WriteManifest(path string, cfg *config.Config, result *groove.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(NewManifest(cfg, result)); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
