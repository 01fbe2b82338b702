package la

import (
	"fmt"
	"math"
	"sort"
)

// SparseVector stores only nonzero components as parallel index/value
// slices. Indices are ascending and unique; absent indices are implicit
// zeros.
type SparseVector struct {
	dims    int
	indices []int
	values  []float64
}

// NewSparseVector returns a sparse vector of logical length dims holding
// the supplied index/value pairs. The indices must be ascending, unique
// and within range; the slices are copied.
func NewSparseVector(dims int, indices []int, values []float64) (*SparseVector, error) {
	if len(indices) != len(values) {
		return nil, fmt.Errorf("la: %d indices but %d values", len(indices), len(values))
	}
	prev := -1
	for _, idx := range indices {
		if idx <= prev {
			return nil, fmt.Errorf("la: indices must be ascending and unique, got %v", indices)
		}
		if idx >= dims {
			return nil, fmt.Errorf("la: index %d out of range for %d dims", idx, dims)
		}
		prev = idx
	}
	iCopy := make([]int, len(indices))
	vCopy := make([]float64, len(values))
	copy(iCopy, indices)
	copy(vCopy, values)
	return &SparseVector{dims: dims, indices: iCopy, values: vCopy}, nil
}

// SparseVectorFromDense returns the sparse representation of values,
// dropping exact zeros.
func SparseVectorFromDense(values []float64) *SparseVector {
	s := &SparseVector{dims: len(values)}
	for i, v := range values {
		if v != 0 {
			s.indices = append(s.indices, i)
			s.values = append(s.values, v)
		}
	}
	return s
}

func (s *SparseVector) Dims() int      { return s.dims }
func (s *SparseVector) NumActive() int { return len(s.indices) }

func (s *SparseVector) Get(i int) float64 {
	n := sort.SearchInts(s.indices, i)
	if n < len(s.indices) && s.indices[n] == i {
		return s.values[n]
	}
	return 0
}

// Set stores v at index i, inserting the index if it is not already
// active so the ascending-unique invariant holds.
func (s *SparseVector) Set(i int, v float64) {
	n := sort.SearchInts(s.indices, i)
	if n < len(s.indices) && s.indices[n] == i {
		s.values[n] = v
		return
	}
	s.indices = append(s.indices, 0)
	s.values = append(s.values, 0)
	copy(s.indices[n+1:], s.indices[n:])
	copy(s.values[n+1:], s.values[n:])
	s.indices[n] = i
	s.values[n] = v
}

func (s *SparseVector) Copy() Vector {
	out := &SparseVector{dims: s.dims}
	out.indices = append(out.indices, s.indices...)
	out.values = append(out.values, s.values...)
	return out
}

func (s *SparseVector) Add(other Vector) Vector {
	checkDims(s, other)
	if o, ok := other.(*DenseVector); ok {
		return o.Add(s)
	}
	out := denseVectorView(s.ToSlice())
	if o, ok := other.(*SparseVector); ok {
		for n, idx := range o.indices {
			out.values[idx] += o.values[n]
		}
		return out
	}
	for i := 0; i < s.dims; i++ {
		out.values[i] += other.Get(i)
	}
	return out
}

func (s *SparseVector) Subtract(other Vector) Vector {
	checkDims(s, other)
	out := denseVectorView(s.ToSlice())
	switch o := other.(type) {
	case *DenseVector:
		for i := range out.values {
			out.values[i] -= o.values[i]
		}
	case *SparseVector:
		for n, idx := range o.indices {
			out.values[idx] -= o.values[n]
		}
	default:
		for i := 0; i < s.dims; i++ {
			out.values[i] -= other.Get(i)
		}
	}
	return out
}

func (s *SparseVector) ScaleInPlace(alpha float64) {
	for n := range s.values {
		s.values[n] *= alpha
	}
}

func (s *SparseVector) HadamardInPlace(other Vector) {
	checkDims(s, other)
	// Implicit zeros stay zero, so only active indices change.
	for n, idx := range s.indices {
		s.values[n] *= other.Get(idx)
	}
}

func (s *SparseVector) Dot(other Vector) float64 {
	checkDims(s, other)
	switch o := other.(type) {
	case *DenseVector:
		return o.Dot(s)
	case *SparseVector:
		var sum float64
		i, j := 0, 0
		for i < len(s.indices) && j < len(o.indices) {
			switch {
			case s.indices[i] == o.indices[j]:
				sum += s.values[i] * o.values[j]
				i++
				j++
			case s.indices[i] < o.indices[j]:
				i++
			default:
				j++
			}
		}
		return sum
	default:
		var sum float64
		for n, idx := range s.indices {
			sum += s.values[n] * other.Get(idx)
		}
		return sum
	}
}

func (s *SparseVector) Sum() float64 {
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum
}

func (s *SparseVector) TwoNorm() float64 {
	var sum float64
	for _, v := range s.values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s *SparseVector) OneNorm() float64 {
	var sum float64
	for _, v := range s.values {
		sum += math.Abs(v)
	}
	return sum
}

func (s *SparseVector) Normalize(n Normalizer) { n(s.values) }

func (s *SparseVector) EuclideanDistance(other Vector) float64 {
	checkDims(s, other)
	if o, ok := other.(*SparseVector); ok {
		var sum float64
		sparseWalk(s, o, func(a, b float64) {
			diff := a - b
			sum += diff * diff
		})
		return math.Sqrt(sum)
	}
	return other.EuclideanDistance(s)
}

func (s *SparseVector) L1Distance(other Vector) float64 {
	checkDims(s, other)
	if o, ok := other.(*SparseVector); ok {
		var sum float64
		sparseWalk(s, o, func(a, b float64) {
			sum += math.Abs(a - b)
		})
		return sum
	}
	return other.L1Distance(s)
}

func (s *SparseVector) CosineDistance(other Vector) float64 {
	return cosineDistance(s, other)
}

func (s *SparseVector) Equal(other Vector) bool {
	if s.dims != other.Dims() {
		return false
	}
	n := 0
	for i := 0; i < s.dims; i++ {
		var v float64
		if n < len(s.indices) && s.indices[n] == i {
			v = s.values[n]
			n++
		}
		if v != other.Get(i) {
			return false
		}
	}
	return true
}

func (s *SparseVector) ToSlice() []float64 {
	out := make([]float64, s.dims)
	for n, idx := range s.indices {
		out[idx] = s.values[n]
	}
	return out
}

// sparseWalk visits the union of active indices of a and b in ascending
// order, calling fn with the two component values at each index.
func sparseWalk(a, b *SparseVector, fn func(av, bv float64)) {
	i, j := 0, 0
	for i < len(a.indices) || j < len(b.indices) {
		switch {
		case j >= len(b.indices) || (i < len(a.indices) && a.indices[i] < b.indices[j]):
			fn(a.values[i], 0)
			i++
		case i >= len(a.indices) || b.indices[j] < a.indices[i]:
			fn(0, b.values[j])
			j++
		default:
			fn(a.values[i], b.values[j])
			i++
			j++
		}
	}
}
