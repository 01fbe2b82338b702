package hdbscan

import (
	"log/slog"
	"math"
	"sort"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// extendedMinSpanningTree is a minimum spanning tree of the mutual
// reachability graph, extended with one self-loop per vertex weighted
// by the vertex's core distance. Edges are sorted ascending by weight;
// hierarchy construction consumes them from the heaviest down, removing
// them from the per-vertex adjacency lists as it goes.
type extendedMinSpanningTree struct {
	numVertices    int
	firstVertices  []int
	secondVertices []int
	weights        []float64

	// adjacency[v] holds the sorted neighbour list of v. The self-loop
	// contributes v twice to its own list, mirroring the two endpoint
	// entries of a regular edge.
	adjacency []*la.IntArrayContainer

	single  [1]int
	scratch *la.IntArrayContainer
}

// buildEMST runs Prim's algorithm over the implicit complete graph of
// mutual reachability distances, O(n^2) time and O(n) working memory.
// The traversal starts from the last point so that tie outcomes are
// reproducible for a given input order.
func buildEMST(points []la.Vector, coreDistances []float64, dist distance.Distance, logger *slog.Logger) *extendedMinSpanningTree {
	n := len(points)
	numEdges := 2*n - 1

	attached := make([]bool, n)
	nearestNeighbors := make([]int, numEdges)
	nearestDistances := make([]float64, numEdges)
	for i := 0; i < n-1; i++ {
		nearestDistances[i] = math.MaxFloat64
	}

	currentPoint := n - 1
	attached[currentPoint] = true
	numAttached := 1

	for numAttached < n {
		nearestPoint := -1
		nearestDistance := math.MaxFloat64

		for neighbor := 0; neighbor < n; neighbor++ {
			if neighbor == currentPoint || attached[neighbor] {
				continue
			}

			// Mutual reachability distance between the frontier point
			// and the candidate.
			mrd := dist.Distance(points[currentPoint], points[neighbor])
			if coreDistances[currentPoint] > mrd {
				mrd = coreDistances[currentPoint]
			}
			if coreDistances[neighbor] > mrd {
				mrd = coreDistances[neighbor]
			}
			if mrd < nearestDistances[neighbor] {
				nearestDistances[neighbor] = mrd
				nearestNeighbors[neighbor] = currentPoint
			}

			if nearestDistances[neighbor] <= nearestDistance {
				nearestDistance = nearestDistances[neighbor]
				nearestPoint = neighbor
			}
		}

		attached[nearestPoint] = true
		numAttached++
		currentPoint = nearestPoint
	}

	firstVertices := make([]int, numEdges)
	for i := 0; i < n-1; i++ {
		firstVertices[i] = i
	}

	// Self-loops carry the core distance of their vertex.
	disconnected := 0
	for i := n - 1; i < numEdges; i++ {
		vertex := i - (n - 1)
		firstVertices[i] = vertex
		nearestNeighbors[i] = vertex
		nearestDistances[i] = coreDistances[vertex]
	}
	for i := 0; i < n-1; i++ {
		if nearestDistances[i] >= math.MaxFloat64 || math.IsInf(nearestDistances[i], 1) {
			disconnected++
		}
	}
	if disconnected > 0 {
		logger.Warn("input is not fully connected under the mutual reachability distance",
			"unreachableEdges", disconnected)
	}

	t := &extendedMinSpanningTree{
		numVertices:    n,
		firstVertices:  firstVertices,
		secondVertices: nearestNeighbors,
		weights:        nearestDistances,
		scratch:        la.NewIntArrayContainer(4),
	}
	t.sortEdges()
	t.buildAdjacency()
	return t
}

func (t *extendedMinSpanningTree) numEdges() int { return len(t.weights) }

// sortEdges orders the edge arrays ascending by weight. The sort is
// stable so that equal-weight edges keep their construction order.
func (t *extendedMinSpanningTree) sortEdges() {
	perm := make([]int, len(t.weights))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return t.weights[perm[i]] < t.weights[perm[j]]
	})

	first := make([]int, len(perm))
	second := make([]int, len(perm))
	weights := make([]float64, len(perm))
	for i, p := range perm {
		first[i] = t.firstVertices[p]
		second[i] = t.secondVertices[p]
		weights[i] = t.weights[p]
	}
	t.firstVertices = first
	t.secondVertices = second
	t.weights = weights
}

func (t *extendedMinSpanningTree) buildAdjacency() {
	lists := make([][]int, t.numVertices)
	for i := range t.weights {
		u, v := t.firstVertices[i], t.secondVertices[i]
		lists[u] = append(lists[u], v)
		lists[v] = append(lists[v], u)
	}
	t.adjacency = make([]*la.IntArrayContainer, t.numVertices)
	for v, list := range lists {
		sort.Ints(list)
		c := la.NewIntArrayContainer(len(list))
		c.Fill(list)
		t.adjacency[v] = c
	}
}

// neighbors returns the remaining adjacency of v. The returned slice
// aliases internal state and is invalidated by removeEdge.
func (t *extendedMinSpanningTree) neighbors(v int) []int {
	adj := t.adjacency[v]
	return adj.Array[:adj.Size]
}

// removeEdge detaches the edge between u and v from both adjacency
// lists. A self-loop holds its vertex twice, so removing it strips
// both copies.
func (t *extendedMinSpanningTree) removeEdge(u, v int) {
	t.removeNeighbor(u, v)
	t.removeNeighbor(v, u)
}

// removeNeighbor removes one occurrence of value from v's sorted list.
func (t *extendedMinSpanningTree) removeNeighbor(v, value int) {
	t.single[0] = value
	la.RemoveOther(t.adjacency[v], t.single[:], t.scratch)
	t.adjacency[v], t.scratch = t.scratch, t.adjacency[v]
}
