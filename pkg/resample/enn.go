// pkg/resample/enn.go
package resample

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/ddos-prep/pkg/config"
)

// ENN removes samples whose k nearest neighbors disagree with their label.
// With Kind "mode" a sample survives when the most common neighbor label
// (lowest code on ties) equals its own; with "all" every neighbor must match.
type ENN struct {
	K    int
	Kind string
}

// FitResample returns the surviving rows grouped by class in ascending
// code order, preserving input order within each class
func (e *ENN) FitResample(x *mat.Dense, y []int) (*mat.Dense, []int, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, nil, fmt.Errorf("enn: %d rows but %d labels", rows, len(y))
	}
	if e.K < 1 {
		return nil, nil, fmt.Errorf("enn: k must be at least 1, got %d", e.K)
	}
	if e.Kind != config.KindMode && e.Kind != config.KindAll {
		return nil, nil, fmt.Errorf("enn: unknown selection kind %q", e.Kind)
	}

	all := make([]point, rows)
	for i := range all {
		all[i] = point{idx: i, x: x.RawRowView(i)}
	}
	index := newNeighborIndex(all)

	keep := make([]bool, rows)
	for i, p := range all {
		keep[i] = e.agrees(y[i], index.nearestExcluding(p, e.K), y)
	}

	classes := lo.Uniq(y)
	slices.Sort(classes)

	var kept []int
	for _, c := range classes {
		for i, label := range y {
			if label == c && keep[i] {
				kept = append(kept, i)
			}
		}
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("enn: every sample was removed")
	}

	out := mat.NewDense(len(kept), cols, nil)
	labels := make([]int, len(kept))
	for r, i := range kept {
		out.SetRow(r, x.RawRowView(i))
		labels[r] = y[i]
	}
	return out, labels, nil
}

func (e *ENN) agrees(label int, neighbors []int, y []int) bool {
	if len(neighbors) == 0 {
		return true
	}

	if e.Kind == config.KindAll {
		return lo.EveryBy(neighbors, func(n int) bool { return y[n] == label })
	}

	votes := lo.CountValuesBy(neighbors, func(n int) int { return y[n] })
	best, bestCount := 0, -1
	for class, count := range votes {
		if count > bestCount || (count == bestCount && class < best) {
			best, bestCount = class, count
		}
	}
	return best == label
}
