package neighbour

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// defaultLeafSize is the maximum number of points held in a leaf node.
const defaultLeafSize = 40

// KDTree answers k-NN queries with an axis-aligned space partitioning
// tree. It requires a distance that can bound itself against a
// bounding box (distance.AxisBounded); use BruteForce for anything
// else.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - per-node bounds are stored as min/max per dimension
//
// Points are reordered internally via an index permutation array;
// reported neighbor indices are always original data indices.
type KDTree struct {
	data       []la.Vector
	coords     []float64 // flat row-major copy of data (n * dims)
	n          int
	dims       int
	leafSize   int
	dist       distance.AxisBounded
	numWorkers int

	idxArray []int // tree-order position -> original index
	nodes    []nodeData
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	nodeBoundsMax []float64
}

type nodeData struct {
	idxStart int
	idxEnd   int
	isLeaf   bool
}

var _ Query = (*KDTree)(nil)

// NewKDTree builds a k-d tree over data. It returns an error if dist
// does not support axis-aligned box bounds.
func NewKDTree(data []la.Vector, dist distance.Distance, numWorkers int) (*KDTree, error) {
	if err := checkData(data); err != nil {
		return nil, err
	}
	bounded, ok := dist.(distance.AxisBounded)
	if !ok {
		return nil, fmt.Errorf("neighbour: distance %q cannot bound axis-aligned boxes", dist.Name())
	}

	n := len(data)
	dims := data[0].Dims()
	coords := make([]float64, n*dims)
	for i, v := range data {
		copy(coords[i*dims:(i+1)*dims], v.ToSlice())
	}
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, defaultLeafSize)
	t := &KDTree{
		data:          data,
		coords:        coords,
		n:             n,
		dims:          dims,
		leafSize:      defaultLeafSize,
		dist:          bounded,
		numWorkers:    numWorkers,
		idxArray:      idxArray,
		nodes:         make([]nodeData, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*dims),
		nodeBoundsMax: make([]float64, maxNodes*dims),
	}
	t.buildNode(0, 0, n)
	return t, nil
}

// kdMaxNodes returns an upper bound on the number of nodes needed for
// a binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2 // +2 for safety margin
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	// Grow arrays if needed (shouldn't happen with a good upper bound).
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, nodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = nodeData{idxStart: start, idxEnd: end, isLeaf: true}
		return
	}

	// Split on the dimension with the greatest spread.
	splitDim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.nodeBoundsMax[nodeID*t.dims+d] - t.nodeBoundsMin[nodeID*t.dims+d]
		if spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = nodeData{idxStart: start, idxEnd: end, isLeaf: false}
	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per dimension for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			v := t.coords[ptIdx*t.dims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	coords := t.coords
	sort.Slice(sub, func(i, j int) bool {
		return coords[sub[i]*dims+dim] < coords[sub[j]*dims+dim]
	})
}

func (t *KDTree) Query(point la.Vector, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return t.search(point, k, -1), nil
}

func (t *KDTree) QueryMany(ctx context.Context, points []la.Vector, k int) ([][]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	results := make([][]Neighbor, len(points))
	err := runBatch(ctx, len(points), t.numWorkers, func(i int) error {
		results[i] = t.search(points[i], k, -1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (t *KDTree) QueryAll(ctx context.Context, k int) ([][]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	results := make([][]Neighbor, t.n)
	err := runBatch(ctx, t.n, t.numWorkers, func(i int) error {
		results[i] = t.search(t.data[i], k, i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// search runs one query. selfIndex has the same exclusion semantics as
// BruteForce.scan.
func (t *KDTree) search(point la.Vector, k int, selfIndex int) []Neighbor {
	h := make(knnHeap, 0, k)
	t.knnSearch(0, point, k, selfIndex, &h)

	// Drain the max-heap into ascending order.
	out := make([]Neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Neighbor)
	}
	return out
}

// knnSearch performs a single-tree traversal using a bounded max-heap
// of size k, descending nearer children first and pruning subtrees
// whose bounding box cannot beat the current k-th distance.
func (t *KDTree) knnSearch(nodeID int, point la.Vector, k, selfIndex int, h *knnHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.idxStart == node.idxEnd && nodeID != 0 {
		return // uninitialized node
	}

	if node.isLeaf {
		for i := node.idxStart; i < node.idxEnd; i++ {
			ptIdx := t.idxArray[i]
			candidate := t.data[ptIdx]
			if selfIndex >= 0 {
				if ptIdx == selfIndex {
					continue
				}
			} else if candidate.Equal(point) {
				continue
			}
			d := t.dist.Distance(point, candidate)
			if h.Len() < k {
				heap.Push(h, Neighbor{Index: ptIdx, Distance: d})
			} else if d < (*h)[0].Distance {
				(*h)[0] = Neighbor{Index: ptIdx, Distance: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	left := 2*nodeID + 1
	right := 2*nodeID + 2

	leftBound := t.boxDistance(left, point)
	rightBound := t.boxDistance(right, point)

	nearChild, farChild := left, right
	farBound := rightBound
	if rightBound < leftBound {
		nearChild, farChild = right, left
		farBound = leftBound
	}

	t.knnSearch(nearChild, point, k, selfIndex, h)
	if h.Len() < k || farBound < (*h)[0].Distance {
		t.knnSearch(farChild, point, k, selfIndex, h)
	}
}

// boxDistance returns a lower bound on the distance from point to any
// point inside the given node's bounding box.
func (t *KDTree) boxDistance(nodeID int, point la.Vector) float64 {
	if nodeID >= len(t.nodes) {
		return math.Inf(1)
	}
	base := nodeID * t.dims
	return t.dist.BoxDistance(point, t.nodeBoundsMin[base:base+t.dims], t.nodeBoundsMax[base:base+t.dims])
}

// knnHeap is a max-heap of Neighbor (largest distance on top) used as
// a bounded priority queue for k-NN queries.
type knnHeap []Neighbor

func (h knnHeap) Len() int           { return len(h) }
func (h knnHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h knnHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *knnHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
