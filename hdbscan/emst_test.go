package hdbscan

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func buildTestEMST(t *testing.T, points []la.Vector, k int) *extendedMinSpanningTree {
	t.Helper()
	opts := DefaultOptions(k)
	core, err := coreDistances(t.Context(), points, opts)
	require.NoError(t, err)
	return buildEMST(points, core, distance.Euclidean{}, discard())
}

func TestEMSTEdgeCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	points := makeBlobs(rng, [][]float64{{0, 0}}, 40, 1.0)

	emst := buildTestEMST(t, points, 5)
	assert.Equal(t, 40, emst.numVertices)
	// n-1 spanning edges plus one self-loop per vertex.
	assert.Equal(t, 2*40-1, emst.numEdges())
}

func TestEMSTEdgesSortedAscending(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	points := makeBlobs(rng, [][]float64{{0, 0}, {5, 5}}, 30, 0.8)

	emst := buildTestEMST(t, points, 5)
	assert.True(t, sort.Float64sAreSorted(emst.weights))
}

func TestEMSTSelfLoopsCarryCoreDistances(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	points := makeBlobs(rng, [][]float64{{0, 0}}, 25, 1.0)

	opts := DefaultOptions(4)
	core, err := coreDistances(t.Context(), points, opts)
	require.NoError(t, err)
	emst := buildEMST(points, core, distance.Euclidean{}, discard())

	selfLoops := 0
	for i := range emst.weights {
		u, v := emst.firstVertices[i], emst.secondVertices[i]
		if u == v {
			selfLoops++
			assert.Equal(t, core[u], emst.weights[i])
		}
	}
	assert.Equal(t, 25, selfLoops)
}

func TestEMSTEdgeWeightsAreMutualReachability(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	points := makeBlobs(rng, [][]float64{{0, 0}}, 20, 1.0)

	opts := DefaultOptions(3)
	core, err := coreDistances(t.Context(), points, opts)
	require.NoError(t, err)
	emst := buildEMST(points, core, distance.Euclidean{}, discard())

	for i := range emst.weights {
		u, v := emst.firstVertices[i], emst.secondVertices[i]
		if u == v {
			continue
		}
		mrd := math.Max(points[u].EuclideanDistance(points[v]), math.Max(core[u], core[v]))
		assert.InDelta(t, mrd, emst.weights[i], 1e-12)
	}
}

func TestEMSTAdjacencyMatchesEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	points := makeBlobs(rng, [][]float64{{0, 0}}, 15, 1.0)

	emst := buildTestEMST(t, points, 3)

	degree := make([]int, emst.numVertices)
	for i := range emst.weights {
		degree[emst.firstVertices[i]]++
		degree[emst.secondVertices[i]]++
	}
	for v := 0; v < emst.numVertices; v++ {
		assert.Len(t, emst.neighbors(v), degree[v])
		assert.True(t, sort.IntsAreSorted(emst.neighbors(v)))
	}
}

func TestEMSTRemoveEdge(t *testing.T) {
	points := []la.Vector{
		la.DenseVectorOf(0, 0),
		la.DenseVectorOf(1, 0),
		la.DenseVectorOf(2, 0),
	}
	emst := buildEMST(points, []float64{0, 0, 0}, distance.Euclidean{}, discard())

	// Removing the self-loop strips both copies of the vertex.
	before := len(emst.neighbors(0))
	emst.removeEdge(0, 0)
	assert.Equal(t, before-2, len(emst.neighbors(0)))

	// Removing a spanning edge strips one entry from each endpoint.
	u, v := -1, -1
	for i := range emst.weights {
		if emst.firstVertices[i] != emst.secondVertices[i] {
			u, v = emst.firstVertices[i], emst.secondVertices[i]
			break
		}
	}
	require.GreaterOrEqual(t, u, 0)
	beforeU, beforeV := len(emst.neighbors(u)), len(emst.neighbors(v))
	emst.removeEdge(u, v)
	assert.Equal(t, beforeU-1, len(emst.neighbors(u)))
	assert.Equal(t, beforeV-1, len(emst.neighbors(v)))
}

func TestEMSTDisconnectedInput(t *testing.T) {
	// Two points at infinite distance still produce a tree; the
	// unreachable edge joins at effectively infinite weight.
	points := []la.Vector{
		la.DenseVectorOf(math.Inf(1), 0),
		la.DenseVectorOf(0, 0),
		la.DenseVectorOf(0, 1),
	}
	emst := buildEMST(points, []float64{0, 0, 0}, distance.Euclidean{}, discard())
	assert.Equal(t, 5, emst.numEdges())
	assert.GreaterOrEqual(t, emst.weights[emst.numEdges()-1], math.MaxFloat64)
}
