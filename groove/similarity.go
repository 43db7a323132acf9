package groove

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-groove/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns a.b / (|a||b|). A zero vector has no direction and
// gives an UndefinedSimilarityError.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &ConfigurationError{Field: "vector", Reason: fmt.Sprintf("length mismatch: %d vs %d", len(a), len(b))}
	}
	if !common.AllFinite(a) || !common.AllFinite(b) {
		return 0, ErrNonFinite
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, &UndefinedSimilarityError{Reason: "zero-norm vector"}
	}

	return floats.Dot(a, b) / (normA * normB), nil
}

// ScalarSimilarity returns 1 - |a-b| / max(a, b). Two zeros are identical and
// score 1. Any other pair whose larger value is not positive is undefined.
func ScalarSimilarity(a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return 0, ErrNonFinite
	}
	if a == 0 && b == 0 {
		return 1, nil
	}
	m := math.Max(a, b)
	if m <= 0 {
		return 0, &UndefinedSimilarityError{Reason: fmt.Sprintf("max(%g, %g) is not positive", a, b)}
	}
	return 1 - math.Abs(a-b)/m, nil
}

// SimilarityMatrix is a square matrix over recordings in discovery order
type SimilarityMatrix struct {
	Descriptor Descriptor
	IDs        []string
	Values     [][]float64
	Defined    [][]bool
	CellErrors []error
}

// BuildSimilarityMatrix compares every pair of summaries. The diagonal is 1
// without evaluating the metric. A failing cell is left undefined and its
// error collected; mixed kinds or vector lengths fail the whole matrix.
func BuildSimilarityMatrix(d Descriptor, summaries []Summary) (*SimilarityMatrix, error) {
	n := len(summaries)
	m := &SimilarityMatrix{
		Descriptor: d,
		IDs:        make([]string, n),
		Values:     make([][]float64, n),
		Defined:    make([][]bool, n),
	}
	if n == 0 {
		return m, nil
	}

	kind := summaries[0].Kind
	dim := len(summaries[0].Vector)
	for i, s := range summaries {
		if s.Kind != kind {
			return nil, &ConfigurationError{Field: string(d), Reason: fmt.Sprintf("%s is %s but %s is %s", s.RecordingID, s.Kind, summaries[0].RecordingID, kind)}
		}
		if kind == KindVector && len(s.Vector) != dim {
			return nil, &ConfigurationError{Field: string(d), Reason: fmt.Sprintf("%s has vector length %d, want %d", s.RecordingID, len(s.Vector), dim)}
		}
		m.IDs[i] = s.RecordingID
		m.Values[i] = make([]float64, n)
		m.Defined[i] = make([]bool, n)
	}

	for i := range n {
		for j := range n {
			if i == j {
				m.Values[i][j] = 1
				m.Defined[i][j] = true
				continue
			}

			var v float64
			var err error
			if kind == KindVector {
				v, err = CosineSimilarity(summaries[i].Vector, summaries[j].Vector)
			} else {
				v, err = ScalarSimilarity(summaries[i].Scalar, summaries[j].Scalar)
			}
			if err != nil {
				m.CellErrors = append(m.CellErrors, cellError(d, m.IDs[i], m.IDs[j], err))
				continue
			}
			m.Values[i][j] = v
			m.Defined[i][j] = true
		}
	}

	return m, nil
}

// At returns cell (i, j) and whether it is defined
func (m *SimilarityMatrix) At(i, j int) (float64, bool) {
	return m.Values[i][j], m.Defined[i][j]
}

// cellError attaches descriptor and pair identity to a metric failure
func cellError(d Descriptor, a, b string, err error) error {
	var undefined *UndefinedSimilarityError
	if errors.As(err, &undefined) {
		return &UndefinedSimilarityError{Descriptor: d, A: a, B: b, Reason: undefined.Reason}
	}
	return fmt.Errorf("%s similarity between %s and %s: %w", d, a, b, err)
}
