// Package neighbour answers k-nearest-neighbour queries over a fixed
// reference set of vectors.
//
// Two engines share one contract: [BruteForce] scans every reference
// point and works with any distance; [KDTree] prunes the search with
// axis-aligned bounding boxes and is valid only for distances
// implementing [distance.AxisBounded]. [New] picks the tree when the
// distance allows it and falls back to brute force otherwise.
//
// Batch queries may run on a bounded worker group; each worker owns one
// query point end-to-end and writes into its own output slot, so the
// output needs no locking. A failing worker fails the whole batch.
package neighbour

import (
	"context"
	"errors"
	"fmt"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// ErrInvalidK is returned when a query is made with k <= 0.
var ErrInvalidK = errors.New("neighbour: k must be positive")

// Neighbor is one query result: the index of a reference point and its
// distance to the query. Results are created fresh per query and owned
// by the caller.
type Neighbor struct {
	Index    int
	Distance float64
}

// Query answers k-nearest-neighbour queries against a fixed reference
// point set.
//
// All query methods return neighbours sorted ascending by distance.
// When fewer than k distinct candidates exist the result is shorter
// than k; this is not an error. Ties are broken deterministically
// within an engine but the exact tie order is engine-specific.
type Query interface {
	// Query returns the k nearest reference points to point. Reference
	// points value-equal to the query are excluded.
	Query(point la.Vector, k int) ([]Neighbor, error)

	// QueryMany answers one query per point. Queries may run
	// concurrently; result slot i always corresponds to points[i]. Any
	// failing query fails the whole batch after all workers finish.
	QueryMany(ctx context.Context, points []la.Vector, k int) ([][]Neighbor, error)

	// QueryAll queries every reference point against the rest of the
	// set. A point is never returned as its own neighbour.
	QueryAll(ctx context.Context, k int) ([][]Neighbor, error)
}

// New returns a query engine over data: a k-d tree when dist supports
// bounding-box pruning, brute force otherwise. numWorkers bounds the
// concurrency of batch queries; values <= 1 mean serial execution.
func New(data []la.Vector, dist distance.Distance, numWorkers int) (Query, error) {
	if ab, ok := dist.(distance.AxisBounded); ok {
		return NewKDTree(data, ab, numWorkers)
	}
	return NewBruteForce(data, dist, numWorkers)
}

// checkData validates a reference set: non-empty, uniform dimensions.
func checkData(data []la.Vector) error {
	if len(data) == 0 {
		return fmt.Errorf("neighbour: empty reference set")
	}
	dims := data[0].Dims()
	for i, v := range data {
		if v.Dims() != dims {
			return fmt.Errorf("%w: point %d has %d dims, expected %d", la.ErrDimensionMismatch, i, v.Dims(), dims)
		}
	}
	return nil
}
