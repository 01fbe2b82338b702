// Package distance provides the pluggable distance functions used by
// the neighbour query engines and the clustering pipeline. Each
// distance is a small stateless (or parameter-only) type; adding a new
// one requires no changes at any call site.
//
// All distances are symmetric, non-negative, and zero for identical
// inputs. Euclidean, L1, Chebyshev and Minkowski are true metrics and
// support axis-aligned bounding-box pruning ([AxisBounded]); Cosine is
// bounded in [0, 2], can violate the triangle inequality, and must not
// be used for tree-based pruning.
package distance

import (
	"fmt"
	"math"

	"github.com/densekit/densekit/la"
)

// Distance computes the distance between two vectors of the same
// logical length. Either operand may be dense or sparse.
type Distance interface {
	// Name returns a stable identifier for the distance, suitable for
	// storage by an external serializer and resolvable via [ByName].
	Name() string

	// Distance returns the distance between a and b.
	Distance(a, b la.Vector) float64
}

// AxisBounded is implemented by distances that admit a valid lower
// bound on the distance between a point and any point inside an
// axis-aligned bounding box. Only these distances are usable for k-d
// tree pruning; all others must fall back to brute-force search.
type AxisBounded interface {
	Distance

	// BoxDistance returns a lower bound on the distance between point
	// and any point within the box [lo, hi] (inclusive, per dimension).
	BoxDistance(point la.Vector, lo, hi []float64) float64
}

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Name() string { return "euclidean" }

func (Euclidean) Distance(a, b la.Vector) float64 { return a.EuclideanDistance(b) }

func (Euclidean) BoxDistance(point la.Vector, lo, hi []float64) float64 {
	var sum float64
	for j := range lo {
		d := boxGap(point.Get(j), lo[j], hi[j])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// L1 is the Manhattan (city-block) distance.
type L1 struct{}

func (L1) Name() string { return "l1" }

func (L1) Distance(a, b la.Vector) float64 { return a.L1Distance(b) }

func (L1) BoxDistance(point la.Vector, lo, hi []float64) float64 {
	var sum float64
	for j := range lo {
		sum += boxGap(point.Get(j), lo[j], hi[j])
	}
	return sum
}

// Cosine is one minus the cosine similarity. It is not a metric: the
// triangle inequality can fail, so it carries no box bound.
type Cosine struct{}

func (Cosine) Name() string { return "cosine" }

func (Cosine) Distance(a, b la.Vector) float64 { return a.CosineDistance(b) }

// Chebyshev is the L-infinity distance.
type Chebyshev struct{}

func (Chebyshev) Name() string { return "chebyshev" }

func (Chebyshev) Distance(a, b la.Vector) float64 {
	var maxVal float64
	for i := 0; i < a.Dims(); i++ {
		if v := math.Abs(a.Get(i) - b.Get(i)); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (Chebyshev) BoxDistance(point la.Vector, lo, hi []float64) float64 {
	var maxVal float64
	for j := range lo {
		if d := boxGap(point.Get(j), lo[j], hi[j]); d > maxVal {
			maxVal = d
		}
	}
	return maxVal
}

// Minkowski is the Lp distance parameterized by P, which must be >= 1.
type Minkowski struct {
	P float64
}

func (m Minkowski) Name() string { return fmt.Sprintf("minkowski(%g)", m.P) }

func (m Minkowski) Distance(a, b la.Vector) float64 {
	if m.P < 1 {
		panic(fmt.Errorf("distance: Minkowski P must be >= 1, got %g", m.P))
	}
	var sum float64
	for i := 0; i < a.Dims(); i++ {
		sum += math.Pow(math.Abs(a.Get(i)-b.Get(i)), m.P)
	}
	return math.Pow(sum, 1/m.P)
}

func (m Minkowski) BoxDistance(point la.Vector, lo, hi []float64) float64 {
	var sum float64
	for j := range lo {
		sum += math.Pow(boxGap(point.Get(j), lo[j], hi[j]), m.P)
	}
	return math.Pow(sum, 1/m.P)
}

// boxGap returns the distance from v to the interval [lo, hi] along one
// dimension, zero when v lies inside it.
func boxGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

// ByName resolves a distance from its stable identifier, the inverse of
// [Distance.Name]. Minkowski distances are parsed with their exponent.
func ByName(name string) (Distance, error) {
	switch name {
	case "euclidean":
		return Euclidean{}, nil
	case "l1":
		return L1{}, nil
	case "cosine":
		return Cosine{}, nil
	case "chebyshev":
		return Chebyshev{}, nil
	}
	var p float64
	if n, err := fmt.Sscanf(name, "minkowski(%g)", &p); err == nil && n == 1 {
		if p < 1 {
			return nil, fmt.Errorf("distance: Minkowski exponent must be >= 1, got %g", p)
		}
		return Minkowski{P: p}, nil
	}
	return nil, fmt.Errorf("distance: unknown distance %q", name)
}
