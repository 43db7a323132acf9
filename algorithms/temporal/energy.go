package temporal

import (
	"github.com/RyanBlaney/sonido-groove/algorithms/common"
)

// Energy computes signal energy as the sum of squared samples
type Energy struct{}

// NewEnergy creates a new energy calculator
func NewEnergy() *Energy {
	return &Energy{}
}

// Compute returns the energy of the whole signal. The value grows with the
// signal length, so windows of different length are not directly comparable.
func (e *Energy) Compute(signal []float64) float64 {
	return common.SumSquares(signal)
}

