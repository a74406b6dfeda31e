// pkg/resample/neighbors.go
package resample

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// point is a row of the sample matrix tagged with its row index
type point struct {
	idx int
	x   []float64
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(point).x[d]
}

func (p point) Dims() int { return len(p.x) }

// Distance is the squared Euclidean distance
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	var sum float64
	for i, v := range p.x {
		d := v - q.x[i]
		sum += d * d
	}
	return sum
}

type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p points) Pivot(d kdtree.Dim) int                { return plane{Dim: d, points: p}.Pivot() }

// plane orders points along one dimension for tree construction
type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool { return p.points[i].x[p.Dim] < p.points[j].x[p.Dim] }
func (p plane) Swap(i, j int)      { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{Dim: p.Dim, points: p.points[start:end]}
}

// neighborIndex answers k-nearest-neighbor queries over a fixed set of rows
type neighborIndex struct {
	tree *kdtree.Tree
	size int
}

// newNeighborIndex indexes rows; the slice is copied because tree
// construction reorders it
func newNeighborIndex(rows []point) *neighborIndex {
	owned := make(points, len(rows))
	copy(owned, rows)
	return &neighborIndex{
		tree: kdtree.New(owned, false),
		size: len(owned),
	}
}

// neighbor is a query result
type neighbor struct {
	idx  int
	dist float64
}

// nearestExcluding returns the k nearest rows to q, excluding q itself,
// ordered by distance then row index. When duplicates of q crowd out q in
// the candidate set, the farthest candidate is dropped instead.
func (n *neighborIndex) nearestExcluding(q point, k int) []int {
	want := k + 1
	if want > n.size {
		want = n.size
	}

	keeper := kdtree.NewNKeeper(want)
	n.tree.NearestSet(keeper, q)

	found := make([]neighbor, 0, len(keeper.Heap))
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		found = append(found, neighbor{idx: c.Comparable.(point).idx, dist: c.Dist})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].idx < found[j].idx
	})

	out := make([]int, 0, k)
	self := false
	for _, f := range found {
		if f.idx == q.idx && !self {
			self = true
			continue
		}
		out = append(out, f.idx)
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}
