// pkg/artifact/array.go
package artifact

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// LabeledMatrix appends labels to x as a final float64 column
func LabeledMatrix(x mat.Matrix, labels []int) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("%d rows but %d labels", rows, len(labels))
	}

	out := mat.NewDense(rows, cols+1, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(x)
	for i, label := range labels {
		out.Set(i, cols, float64(label))
	}
	return out, nil
}

// SplitLabeled is the inverse of LabeledMatrix
func SplitLabeled(m *mat.Dense) (*mat.Dense, []int, error) {
	rows, cols := m.Dims()
	if cols < 2 {
		return nil, nil, fmt.Errorf("labeled array needs at least 2 columns, has %d", cols)
	}

	x := mat.DenseCopyOf(m.Slice(0, rows, 0, cols-1))
	labels := make([]int, rows)
	for i := range labels {
		v := m.At(i, cols-1)
		if v != float64(int(v)) {
			return nil, nil, fmt.Errorf("row %d: label %v is not an integer code", i, v)
		}
		labels[i] = int(v)
	}
	return x, labels, nil
}

// SaveArray writes m as a 2-D float64 .npy file
func SaveArray(path string, m *mat.Dense) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return npyio.Write(w, m)
	})
}

// LoadArray reads a 2-D float64 .npy file
func LoadArray(path string) (*mat.Dense, error) {
	var m mat.Dense
	err := ReadFile(path, func(r io.Reader) error {
		return npyio.Read(r, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
