package hdbscan

import (
	"context"

	"github.com/densekit/densekit/la"
	"github.com/densekit/densekit/neighbour"
)

// coreDistances computes the core distance of every point: its
// distance to the (K-1)-th nearest neighbour, the point itself counting
// as the zeroth. K=1 yields zero core distances, reducing mutual
// reachability to the plain distance. With K points or fewer in total,
// the furthest available neighbour is used.
func coreDistances(ctx context.Context, points []la.Vector, opts Options) ([]float64, error) {
	core := make([]float64, len(points))
	numNeighbors := opts.K - 1
	if numNeighbors == 0 {
		return core, nil
	}

	engine, err := neighbour.New(points, opts.Distance, opts.NumWorkers)
	if err != nil {
		return nil, err
	}
	results, err := engine.QueryAll(ctx, numNeighbors)
	if err != nil {
		return nil, err
	}
	for i, neighbors := range results {
		if len(neighbors) > 0 {
			core[i] = neighbors[len(neighbors)-1].Distance
		}
	}
	return core, nil
}
