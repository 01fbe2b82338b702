package neighbour

import (
	"context"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// BruteForce answers k-NN queries by scanning every reference point.
// It works with any distance. k is typically small (5-50), so each
// query maintains a fixed-size sorted insertion buffer rather than a
// heap; among equal distances the point encountered first in scan
// order wins.
type BruteForce struct {
	data       []la.Vector
	dist       distance.Distance
	numWorkers int
}

var _ Query = (*BruteForce)(nil)

// NewBruteForce constructs a brute-force query engine over data.
func NewBruteForce(data []la.Vector, dist distance.Distance, numWorkers int) (*BruteForce, error) {
	if err := checkData(data); err != nil {
		return nil, err
	}
	return &BruteForce{data: data, dist: dist, numWorkers: numWorkers}, nil
}

func (b *BruteForce) Query(point la.Vector, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return b.scan(point, k, -1), nil
}

func (b *BruteForce) QueryMany(ctx context.Context, points []la.Vector, k int) ([][]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	results := make([][]Neighbor, len(points))
	err := runBatch(ctx, len(points), b.numWorkers, func(i int) error {
		results[i] = b.scan(points[i], k, -1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (b *BruteForce) QueryAll(ctx context.Context, k int) ([][]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	results := make([][]Neighbor, len(b.data))
	err := runBatch(ctx, len(b.data), b.numWorkers, func(i int) error {
		results[i] = b.scan(b.data[i], k, i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// scan runs one query. selfIndex excludes a reference point by index
// (self-queries); when selfIndex is negative, reference points
// value-equal to the query are excluded instead.
func (b *BruteForce) scan(point la.Vector, k int, selfIndex int) []Neighbor {
	buf := make([]Neighbor, 0, k)

	for idx, candidate := range b.data {
		if selfIndex >= 0 {
			if idx == selfIndex {
				continue
			}
		} else if candidate.Equal(point) {
			continue
		}

		d := b.dist.Distance(point, candidate)
		if len(buf) == k && d >= buf[k-1].Distance {
			continue
		}

		// Find the insertion point: strictly before any larger
		// distance, after all equal ones, so earlier scan order wins
		// ties.
		pos := len(buf)
		for pos >= 1 && d < buf[pos-1].Distance {
			pos--
		}
		if len(buf) < k {
			buf = append(buf, Neighbor{})
		}
		copy(buf[pos+1:], buf[pos:])
		buf[pos] = Neighbor{Index: idx, Distance: d}
	}

	return buf
}
