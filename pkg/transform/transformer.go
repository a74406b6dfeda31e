// pkg/transform/transformer.go
package transform

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when a stateful transform is applied before Fit
var ErrNotFitted = errors.New("transformer has not been fitted")

// Transformer is a fit/transform step over a numeric matrix
type Transformer interface {
	// Name identifies the branch in persisted state and logs
	Name() string

	// Fit learns parameters necessary for transformation
	Fit(x mat.Matrix) error

	// Transform returns a new matrix with the same shape as x
	Transform(x mat.Matrix) (*mat.Dense, error)
}

// ValidationError reports input a transform refuses to process
type ValidationError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q in column %q row %d: %s", e.Value, e.Column, e.Row, e.Reason)
}
