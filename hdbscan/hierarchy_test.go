package hdbscan

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyStabilitiesAreFiniteAndNonNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 0))
	points := makeBlobs(rng, [][]float64{{0, 0}, {6, 6}, {-6, 6}}, 60, 0.5)

	emst := buildTestEMST(t, points, 5)
	h := computeHierarchy(emst, 5)

	require.Greater(t, len(h.clusters), 2, "expected splits")
	for label := 2; label < len(h.clusters); label++ {
		c := h.clusters[label]
		assert.False(t, math.IsNaN(c.stability), "cluster %d", label)
		assert.False(t, math.IsInf(c.stability, 0), "cluster %d", label)
		// Edges are removed from the heaviest down, so points detach at
		// or below their cluster's birth level.
		assert.GreaterOrEqual(t, c.stability, 0.0, "cluster %d", label)
		assert.Greater(t, c.birthLevel, 0.0, "cluster %d", label)
	}
}

func TestDetachPointsZeroBirthLevel(t *testing.T) {
	h := &hierarchy{clusters: make([]cluster, 2)}
	h.clusters[1] = cluster{birthLevel: 0, numPoints: 4}

	// Zero levels come from duplicate points; they must contribute
	// nothing instead of producing Inf or NaN.
	h.detachPoints(1, 2, 0)
	h.detachPoints(1, 2, 0.5)
	c := h.clusters[1]
	assert.Zero(t, c.stability)
	assert.Zero(t, c.numPoints)
	assert.Equal(t, 0.5, c.splitLevel)
}

func TestDetachPointsAccruesStability(t *testing.T) {
	h := &hierarchy{clusters: make([]cluster, 2)}
	h.clusters[1] = cluster{birthLevel: 2, numPoints: 10}

	h.detachPoints(1, 3, 1)
	// 3 * (1/1 - 1/2)
	assert.InDelta(t, 1.5, h.clusters[1].stability, 1e-12)
	assert.Equal(t, 7, h.clusters[1].numPoints)
	assert.Zero(t, h.clusters[1].splitLevel, "cluster still alive")
}

func TestPropagateSelectsMoreStableSide(t *testing.T) {
	build := func(parentStability float64) *hierarchy {
		h := &hierarchy{clusters: make([]cluster, 4)}
		root := cluster{parent: 0, birthLevel: math.NaN(), propagatedLowestChildSplitLevel: math.MaxFloat64, hasChildren: true}
		parent := cluster{parent: 1, birthLevel: 4, stability: parentStability, splitLevel: 1, propagatedLowestChildSplitLevel: math.MaxFloat64, hasChildren: true}
		leafA := cluster{parent: 2, birthLevel: 2, stability: 1.0, splitLevel: 0.5, propagatedLowestChildSplitLevel: math.MaxFloat64}
		leafB := cluster{parent: 2, birthLevel: 2, stability: 0.5, splitLevel: 0.25, propagatedLowestChildSplitLevel: math.MaxFloat64}
		h.clusters[1] = root
		h.clusters[2] = parent
		h.clusters[3] = leafA
		h.clusters = append(h.clusters, leafB)
		return h
	}

	// Children together (1.5) beat a weak parent (1.2): the solution is
	// the two leaves.
	h := build(1.2)
	h.propagate()
	assert.ElementsMatch(t, []int{3, 4}, h.clusters[1].propagatedDescendants)

	// A strong parent (2.0) absorbs its children.
	h = build(2.0)
	h.propagate()
	assert.Equal(t, []int{2}, h.clusters[1].propagatedDescendants)

	// The lowest split level always travels to the root.
	assert.Equal(t, 0.25, h.clusters[1].propagatedLowestChildSplitLevel)
}

func TestPropagateTiePrefersParent(t *testing.T) {
	h := &hierarchy{clusters: make([]cluster, 5)}
	h.clusters[1] = cluster{parent: 0, birthLevel: math.NaN(), propagatedLowestChildSplitLevel: math.MaxFloat64, hasChildren: true}
	h.clusters[2] = cluster{parent: 1, birthLevel: 4, stability: 1.0, splitLevel: 1, propagatedLowestChildSplitLevel: math.MaxFloat64, hasChildren: true}
	h.clusters[3] = cluster{parent: 2, birthLevel: 2, stability: 0.5, splitLevel: 0.5, propagatedLowestChildSplitLevel: math.MaxFloat64}
	h.clusters[4] = cluster{parent: 2, birthLevel: 2, stability: 0.5, splitLevel: 0.5, propagatedLowestChildSplitLevel: math.MaxFloat64}

	h.propagate()
	assert.Equal(t, []int{2}, h.clusters[1].propagatedDescendants, "equal stability keeps the parent")
}

func TestComputeHierarchyAllPointsEventuallyNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 0))
	points := makeBlobs(rng, [][]float64{{0, 0}}, 30, 1.0)

	emst := buildTestEMST(t, points, 4)
	h := computeHierarchy(emst, 4)

	// Every point must have fallen out of some cluster at a positive
	// level; this is what GLOSH scores are computed from.
	for i, level := range h.pointNoiseLevels {
		assert.Greater(t, level, 0.0, "point %d", i)
		assert.GreaterOrEqual(t, h.pointLastClusters[i], 1, "point %d", i)
	}
}

func TestCountClusters(t *testing.T) {
	assert.Equal(t, 0, countClusters([]int{NoiseLabel, NoiseLabel}))
	assert.Equal(t, 3, countClusters([]int{0, 1, 2, NoiseLabel, 1}))
}
