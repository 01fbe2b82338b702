// Package la provides the dense and sparse linear algebra types used
// throughout densekit: vectors, a dense matrix, normalizers and the
// sorted integer array utilities.
//
// Dense and sparse vectors of the same logical length are interchangeable
// in every operation: any binary operation accepts either representation
// on either side and produces identical numeric results.
package la

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is the panic value raised by binary vector and
// matrix operations whose operands have different logical dimensions.
// Dimension mismatches are programming errors; they are reported
// immediately and are never retried.
var ErrDimensionMismatch = errors.New("la: dimension mismatch")

// Normalizer rescales a value slice in place.
type Normalizer func(values []float64)

// Vector is an ordered, fixed-length sequence of float64 components.
// Implemented by [DenseVector] and [SparseVector].
//
// Methods that take another Vector accept either representation.
// In-place methods mutate the receiver; the remaining methods treat the
// receiver as immutable.
type Vector interface {
	// Dims returns the logical length of the vector.
	Dims() int

	// Get returns the component at index i.
	Get(i int) float64

	// Set stores v at index i.
	Set(i int, v float64)

	// NumActive returns the number of explicitly stored components.
	NumActive() int

	// Copy returns a deep copy with the same representation.
	Copy() Vector

	// Add returns the element-wise sum of the receiver and other.
	Add(other Vector) Vector

	// Subtract returns the element-wise difference of the receiver and other.
	Subtract(other Vector) Vector

	// ScaleInPlace multiplies every component by alpha.
	ScaleInPlace(alpha float64)

	// HadamardInPlace multiplies the receiver element-wise by other.
	HadamardInPlace(other Vector)

	// Dot returns the inner product of the receiver and other.
	Dot(other Vector) float64

	// Sum returns the sum of all components.
	Sum() float64

	// TwoNorm returns the Euclidean norm.
	TwoNorm() float64

	// OneNorm returns the sum of absolute component values.
	OneNorm() float64

	// Normalize applies n to the stored values in place.
	Normalize(n Normalizer)

	// EuclideanDistance returns the L2 distance to other.
	EuclideanDistance(other Vector) float64

	// L1Distance returns the Manhattan distance to other.
	L1Distance(other Vector) float64

	// CosineDistance returns 1 minus the cosine similarity to other.
	CosineDistance(other Vector) float64

	// Equal reports whether the receiver and other represent the same
	// logical values, regardless of representation.
	Equal(other Vector) bool

	// ToSlice returns the vector as a fully materialized []float64.
	// The slice is freshly allocated and owned by the caller.
	ToSlice() []float64
}

// checkDims panics with ErrDimensionMismatch unless a and b have the
// same logical length.
func checkDims(a, b Vector) {
	if a.Dims() != b.Dims() {
		panic(fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, a.Dims(), b.Dims()))
	}
}
