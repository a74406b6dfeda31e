// pkg/transform/cuberoot.go
package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/ddos-prep/pkg/converter"
)

// CubeRoot applies the real cube root elementwise. It is stateless; with
// Validate set it rejects NaN and infinite input before transforming.
type CubeRoot struct {
	Validate bool
	Columns  []string // Names used in validation errors
}

func (c *CubeRoot) Name() string { return "cube_root" }

// Fit only checks the input
func (c *CubeRoot) Fit(x mat.Matrix) error {
	return c.check(x)
}

func (c *CubeRoot) Transform(x mat.Matrix) (*mat.Dense, error) {
	if err := c.check(x); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Cbrt(v)
	}, x)
	return out, nil
}

func (c *CubeRoot) check(x mat.Matrix) error {
	if !c.Validate {
		return nil
	}

	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j)
			if !converter.IsFinite(v) {
				return &ValidationError{
					Column: c.columnName(j),
					Row:    i,
					Value:  converter.FormatFloat(v),
					Reason: "input must be finite",
				}
			}
		}
	}
	return nil
}

func (c *CubeRoot) columnName(j int) string {
	if j < len(c.Columns) {
		return c.Columns[j]
	}
	return ""
}
