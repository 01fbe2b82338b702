package hdbscan

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBlobs draws n points per centre from isotropic Gaussians.
func makeBlobs(rng *rand.Rand, centers [][]float64, n int, sigma float64) []la.Vector {
	var points []la.Vector
	for _, c := range centers {
		for i := 0; i < n; i++ {
			values := make([]float64, len(c))
			for j := range values {
				values[j] = c[j] + rng.NormFloat64()*sigma
			}
			points = append(points, la.DenseVectorOf(values...))
		}
	}
	return points
}

func TestClusterTwoGaussianBlobs(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	centers := [][]float64{{0, 0}, {10, 10}}
	points := makeBlobs(rng, centers, 500, 0.5)

	model, err := Cluster(context.Background(), points, DefaultOptions(5))
	require.NoError(t, err)
	require.Len(t, model.Labels, 1000)
	require.Len(t, model.OutlierScores, 1000)

	numNoise := 0
	for _, l := range model.Labels {
		if l == NoiseLabel {
			numNoise++
		}
	}
	assert.Less(t, numNoise, 10, "under 1%% noise on well-separated blobs")
	assert.Equal(t, 2, countClusters(model.Labels))

	// Each blob maps onto exactly one label.
	for blob := 0; blob < 2; blob++ {
		seen := make(map[int]bool)
		for i := blob * 500; i < (blob+1)*500; i++ {
			if model.Labels[i] != NoiseLabel {
				seen[model.Labels[i]] = true
			}
		}
		assert.Len(t, seen, 1, "blob %d split across labels", blob)
	}
	first, second := model.Labels[0], model.Labels[500]
	assert.NotEqual(t, first, second)
}

func TestClusterOutlierScores(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	points := makeBlobs(rng, [][]float64{{0, 0}, {8, 8}}, 200, 0.4)

	model, err := Cluster(context.Background(), points, DefaultOptions(5))
	require.NoError(t, err)

	for i, score := range model.OutlierScores {
		assert.GreaterOrEqual(t, score, 0.0, "point %d", i)
		assert.LessOrEqual(t, score, 1.0, "point %d", i)
		if model.Labels[i] == NoiseLabel {
			assert.Equal(t, model.NoiseOutlierScore, score)
		}
	}
}

func TestClusterParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	points := makeBlobs(rng, [][]float64{{0, 0}, {6, 6}, {-6, 6}}, 100, 0.5)

	opts := DefaultOptions(5)
	serial, err := Cluster(context.Background(), points, opts)
	require.NoError(t, err)

	opts.NumWorkers = 4
	parallel, err := Cluster(context.Background(), points, opts)
	require.NoError(t, err)

	assert.Equal(t, serial.Labels, parallel.Labels)
	assert.Equal(t, serial.OutlierScores, parallel.OutlierScores)
}

func TestClusterFewerPointsThanMinClusterSize(t *testing.T) {
	points := []la.Vector{
		la.DenseVectorOf(0, 0),
		la.DenseVectorOf(1, 1),
		la.DenseVectorOf(2, 2),
	}
	model, err := Cluster(context.Background(), points, DefaultOptions(10))
	require.NoError(t, err)
	for _, l := range model.Labels {
		assert.Equal(t, NoiseLabel, l)
	}
}

func TestClusterSinglePoint(t *testing.T) {
	model, err := Cluster(context.Background(), []la.Vector{la.DenseVectorOf(1, 2)}, DefaultOptions(1))
	require.NoError(t, err)
	require.Len(t, model.Labels, 1)
	assert.Equal(t, NoiseLabel, model.Labels[0])
}

func TestClusterIdenticalPoints(t *testing.T) {
	points := make([]la.Vector, 10)
	for i := range points {
		points[i] = la.DenseVectorOf(5, 5)
	}
	// Degenerate zero distances everywhere must not fault.
	model, err := Cluster(context.Background(), points, DefaultOptions(3))
	require.NoError(t, err)
	require.Len(t, model.Labels, 10)
}

func TestClusterSparseInputMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 0))
	dense := makeBlobs(rng, [][]float64{{0, 0, 0}, {7, 7, 7}}, 80, 0.4)
	sparse := make([]la.Vector, len(dense))
	for i, p := range dense {
		sparse[i] = la.SparseVectorFromDense(p.ToSlice())
	}

	opts := DefaultOptions(5)
	// Sparse vectors have no box bound cheaper than their values, but
	// the distances agree, so the clusterings must too.
	a, err := Cluster(context.Background(), dense, opts)
	require.NoError(t, err)
	b, err := Cluster(context.Background(), sparse, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
}

func TestClusterWithCosineDistance(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 0))
	// Two directional bundles; cosine separates by angle, not norm.
	var points []la.Vector
	for i := 0; i < 100; i++ {
		scale := 1 + rng.Float64()*9
		points = append(points, la.DenseVectorOf(scale*(1+0.05*rng.NormFloat64()), scale*0.05*rng.NormFloat64()))
	}
	for i := 0; i < 100; i++ {
		scale := 1 + rng.Float64()*9
		points = append(points, la.DenseVectorOf(scale*0.05*rng.NormFloat64(), scale*(1+0.05*rng.NormFloat64())))
	}

	opts := DefaultOptions(5)
	opts.Distance = distance.Cosine{}
	model, err := Cluster(context.Background(), points, opts)
	require.NoError(t, err)
	assert.Equal(t, "cosine", model.DistanceName)
	assert.Equal(t, 2, countClusters(model.Labels))
}

func TestClusterValidation(t *testing.T) {
	points := []la.Vector{la.DenseVectorOf(1), la.DenseVectorOf(2)}

	_, err := Cluster(context.Background(), points, Options{MinClusterSize: 0})
	assert.Error(t, err)

	opts := DefaultOptions(2)
	opts.NoiseOutlierScore = 1.5
	_, err = Cluster(context.Background(), points, opts)
	assert.Error(t, err)

	_, err = Cluster(context.Background(), nil, DefaultOptions(2))
	assert.Error(t, err)

	mixed := []la.Vector{la.DenseVectorOf(1, 2), la.DenseVectorOf(1)}
	_, err = Cluster(context.Background(), mixed, DefaultOptions(2))
	assert.ErrorIs(t, err, la.ErrDimensionMismatch)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions(7)
	assert.Equal(t, 7, opts.MinClusterSize)
	assert.Equal(t, 7, opts.K)
	assert.Equal(t, 1, opts.NumWorkers)
	assert.Equal(t, "euclidean", opts.Distance.Name())
	assert.Equal(t, DefaultNoiseOutlierScore, opts.NoiseOutlierScore)
}

func TestRenumberLabels(t *testing.T) {
	flat := []int{3, 0, 7, 3, 0, 7, 7}
	assert.Equal(t, []int{0, NoiseLabel, 1, 0, NoiseLabel, 1, 1}, renumberLabels(flat))
}
