// Package hdbscan implements the HDBSCAN* density-based clustering
// algorithm over vectors from package la.
//
// The pipeline follows Campello, Moulavi, Zimek and Sander,
// "Hierarchical Density Estimates for Data Clustering, Visualization,
// and Outlier Detection" (ACM TKDD 2015): per-point core distances, an
// extended minimum spanning tree of mutual reachability distances, a
// density hierarchy extracted by removing tree edges from the heaviest
// down, excess-of-mass cluster selection, GLOSH outlier scores, and
// per-cluster exemplars used to assign labels to unseen points.
package hdbscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// NoiseLabel is the cluster label assigned to outlier and noise points.
const NoiseLabel = -1

// DefaultNoiseOutlierScore is the outlier score Predict assigns to
// points that fall outside every cluster's reach.
const DefaultNoiseOutlierScore = 0.9

var errEmptyInput = errors.New("hdbscan: no input points")

// Options configures a clustering run. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	// MinClusterSize is the minimum number of points a component must
	// retain to count as a cluster. Smaller fragments become noise.
	MinClusterSize int

	// Distance is the distance function. Defaults to Euclidean.
	Distance distance.Distance

	// K is the number of neighbours used in the density estimate,
	// counting the point itself. The core distance of a point is its
	// distance to the (K-1)-th actual neighbour; K=1 gives zero core
	// distances. Defaults to MinClusterSize.
	K int

	// NumWorkers bounds the parallelism of the core distance stage.
	// Values <= 1 mean serial execution.
	NumWorkers int

	// NoiseOutlierScore is the score reported for noise points, both in
	// the training output and by Predict. Must be in (0, 1]; higher
	// than any in-cluster score so noise sorts last.
	NoiseOutlierScore float64

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when a field is left at its
// zero value: Euclidean distance, K = MinClusterSize, serial execution.
func DefaultOptions(minClusterSize int) Options {
	return Options{
		MinClusterSize:    minClusterSize,
		Distance:          distance.Euclidean{},
		K:                 minClusterSize,
		NumWorkers:        1,
		NoiseOutlierScore: DefaultNoiseOutlierScore,
	}
}

func (o *Options) applyDefaults() {
	if o.Distance == nil {
		o.Distance = distance.Euclidean{}
	}
	if o.K == 0 {
		o.K = o.MinClusterSize
	}
	if o.NumWorkers == 0 {
		o.NumWorkers = 1
	}
	if o.NoiseOutlierScore == 0 {
		o.NoiseOutlierScore = DefaultNoiseOutlierScore
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

func (o *Options) validate() error {
	if o.MinClusterSize < 1 {
		return fmt.Errorf("hdbscan: minClusterSize must be at least 1, got %d", o.MinClusterSize)
	}
	if o.K < 1 {
		return fmt.Errorf("hdbscan: k must be at least 1, got %d", o.K)
	}
	if o.NoiseOutlierScore <= 0 || o.NoiseOutlierScore > 1 {
		return fmt.Errorf("hdbscan: noise outlier score must be in (0, 1], got %g", o.NoiseOutlierScore)
	}
	return nil
}

// Cluster runs HDBSCAN* over points and returns the trained model. The
// input is not modified; cluster labels and outlier scores in the model
// are indexed like points. Labels are 0..C-1 with NoiseLabel for noise.
func Cluster(ctx context.Context, points []la.Vector, opts Options) (*Model, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errEmptyInput
	}
	dims := points[0].Dims()
	for i, p := range points {
		if p.Dims() != dims {
			return nil, fmt.Errorf("%w: point %d has %d dims, expected %d", la.ErrDimensionMismatch, i, p.Dims(), dims)
		}
	}

	core, err := coreDistances(ctx, points, opts)
	if err != nil {
		return nil, err
	}

	emst := buildEMST(points, core, opts.Distance, opts.Logger)
	opts.Logger.Debug("built extended minimum spanning tree",
		"points", len(points), "edges", emst.numEdges())

	h := computeHierarchy(emst, opts.MinClusterSize)
	h.propagate()
	flatLabels := h.prominentLabels()
	outlierScores := h.outlierScores(flatLabels, opts.NoiseOutlierScore)
	labels := renumberLabels(flatLabels)
	exemplars := computeExemplars(points, labels, outlierScores, opts.Distance)

	opts.Logger.Info("clustering complete",
		"points", len(points),
		"clusters", countClusters(labels),
		"exemplars", len(exemplars))

	return &Model{
		Labels:            labels,
		OutlierScores:     outlierScores,
		NoiseOutlierScore: opts.NoiseOutlierScore,
		DistanceName:      opts.Distance.Name(),
		Exemplars:         exemplars,
		dist:              opts.Distance,
	}, nil
}

// renumberLabels maps the internal hierarchy labels onto a dense
// external labelling: noise becomes NoiseLabel and surviving cluster
// labels become 0..C-1 in ascending internal-label order.
func renumberLabels(flatLabels []int) []int {
	remap := make(map[int]int)
	for _, label := range flatLabels {
		if label != noiseClusterLabel {
			remap[label] = 0
		}
	}
	ordered := make([]int, 0, len(remap))
	for label := range remap {
		ordered = append(ordered, label)
	}
	sort.Ints(ordered)
	for dense, label := range ordered {
		remap[label] = dense
	}

	labels := make([]int, len(flatLabels))
	for i, label := range flatLabels {
		if label == noiseClusterLabel {
			labels[i] = NoiseLabel
		} else {
			labels[i] = remap[label]
		}
	}
	return labels
}

func countClusters(labels []int) int {
	max := -1
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}
