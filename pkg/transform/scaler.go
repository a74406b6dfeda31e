// pkg/transform/scaler.go
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// zeroScale is the threshold below which a standard deviation is treated as
// zero and replaced by 1
const zeroScale = 10 * 2.220446049250313e-16

// StandardScaler centers each column on its fit-time mean and divides by
// its fit-time population standard deviation
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// NewStandardScaler returns an unfitted scaler
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

func (s *StandardScaler) Name() string { return "standard_scaler" }

// Fit computes per-column mean and scale
func (s *StandardScaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return fmt.Errorf("standard scaler: cannot fit on zero rows")
	}

	mean := make([]float64, cols)
	scale := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		m, std := stat.PopMeanStdDev(col, nil)
		if std < zeroScale || math.IsNaN(std) {
			std = 1
		}
		mean[j] = m
		scale[j] = std
	}

	s.Mean = mean
	s.Scale = scale
	return nil
}

// Transform standardizes x with the fitted statistics
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("standard scaler: fitted on %d columns, got %d", len(s.Mean), cols)
	}

	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, x)
	return out, nil
}
