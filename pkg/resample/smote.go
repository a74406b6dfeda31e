// pkg/resample/smote.go
package resample

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingleClass is returned when there is nothing to balance against
	ErrSingleClass = errors.New("resampling needs at least two classes")

	// ErrTooFewSamples is returned when the minority class cannot provide
	// a neighbor to interpolate towards
	ErrTooFewSamples = errors.New("minority class needs at least two samples")
)

// SMOTE oversamples the minority class up to the majority count by
// interpolating between each chosen sample and one of its k nearest
// same-class neighbors
type SMOTE struct {
	K    int
	Rand *rand.Rand
}

// minorityTarget returns the smallest class and how many samples it must
// gain to reach the largest. Ties resolve to the lowest class code.
func minorityTarget(y []int) (class, need int, err error) {
	counts := lo.CountValues(y)
	if len(counts) < 2 {
		return 0, 0, ErrSingleClass
	}

	classes := lo.Keys(counts)
	slices.Sort(classes)

	minority, majority := classes[0], classes[0]
	for _, c := range classes[1:] {
		if counts[c] < counts[minority] {
			minority = c
		}
		if counts[c] > counts[majority] {
			majority = c
		}
	}
	return minority, counts[majority] - counts[minority], nil
}

// FitResample returns the input rows followed by the synthetic rows
func (s *SMOTE) FitResample(x *mat.Dense, y []int) (*mat.Dense, []int, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, nil, fmt.Errorf("smote: %d rows but %d labels", rows, len(y))
	}
	if s.K < 1 {
		return nil, nil, fmt.Errorf("smote: k must be at least 1, got %d", s.K)
	}

	class, need, err := minorityTarget(y)
	if err != nil {
		return nil, nil, err
	}
	if need == 0 {
		return mat.DenseCopyOf(x), slices.Clone(y), nil
	}

	members := make([]point, 0, rows-need)
	for i, label := range y {
		if label == class {
			members = append(members, point{idx: len(members), x: x.RawRowView(i)})
		}
	}
	if len(members) < 2 {
		return nil, nil, fmt.Errorf("%w: class %d has %d", ErrTooFewSamples, class, len(members))
	}

	k := min(s.K, len(members)-1)
	index := newNeighborIndex(members)
	nn := make([][]int, len(members))
	for i, m := range members {
		nn[i] = index.nearestExcluding(m, k)
	}

	out := mat.NewDense(rows+need, cols, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(x)
	labels := make([]int, rows+need)
	copy(labels, y)

	for n := 0; n < need; n++ {
		pick := s.Rand.Intn(len(members) * k)
		base := members[pick/k].x
		other := members[nn[pick/k][pick%k]].x
		gap := s.Rand.Float64()

		row := out.RawRowView(rows + n)
		for j := range row {
			row[j] = base[j] + gap*(other[j]-base[j])
		}
		labels[rows+n] = class
	}

	return out, labels, nil
}
