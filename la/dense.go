package la

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DenseVector stores every component explicitly.
type DenseVector struct {
	values []float64
}

// NewDenseVector returns a zeroed dense vector with dims components.
func NewDenseVector(dims int) *DenseVector {
	return &DenseVector{values: make([]float64, dims)}
}

// DenseVectorOf returns a dense vector copying the supplied values.
func DenseVectorOf(values ...float64) *DenseVector {
	v := make([]float64, len(values))
	copy(v, values)
	return &DenseVector{values: v}
}

// denseVectorView wraps values without copying. The caller retains
// ownership of the backing slice.
func denseVectorView(values []float64) *DenseVector {
	return &DenseVector{values: values}
}

func (d *DenseVector) Dims() int      { return len(d.values) }
func (d *DenseVector) NumActive() int { return len(d.values) }

func (d *DenseVector) Get(i int) float64 { return d.values[i] }

func (d *DenseVector) Set(i int, v float64) { d.values[i] = v }

func (d *DenseVector) Copy() Vector {
	return DenseVectorOf(d.values...)
}

func (d *DenseVector) Add(other Vector) Vector {
	checkDims(d, other)
	out := make([]float64, len(d.values))
	switch o := other.(type) {
	case *DenseVector:
		floats.AddTo(out, d.values, o.values)
	case *SparseVector:
		copy(out, d.values)
		for n, idx := range o.indices {
			out[idx] += o.values[n]
		}
	default:
		for i := range out {
			out[i] = d.values[i] + other.Get(i)
		}
	}
	return &DenseVector{values: out}
}

func (d *DenseVector) Subtract(other Vector) Vector {
	checkDims(d, other)
	out := make([]float64, len(d.values))
	switch o := other.(type) {
	case *DenseVector:
		floats.SubTo(out, d.values, o.values)
	case *SparseVector:
		copy(out, d.values)
		for n, idx := range o.indices {
			out[idx] -= o.values[n]
		}
	default:
		for i := range out {
			out[i] = d.values[i] - other.Get(i)
		}
	}
	return &DenseVector{values: out}
}

func (d *DenseVector) ScaleInPlace(alpha float64) {
	floats.Scale(alpha, d.values)
}

func (d *DenseVector) HadamardInPlace(other Vector) {
	checkDims(d, other)
	switch o := other.(type) {
	case *DenseVector:
		floats.Mul(d.values, o.values)
	case *SparseVector:
		// Implicit zeros in other zero the corresponding components.
		n := 0
		for i := range d.values {
			if n < len(o.indices) && o.indices[n] == i {
				d.values[i] *= o.values[n]
				n++
			} else {
				d.values[i] = 0
			}
		}
	default:
		for i := range d.values {
			d.values[i] *= other.Get(i)
		}
	}
}

func (d *DenseVector) Dot(other Vector) float64 {
	checkDims(d, other)
	switch o := other.(type) {
	case *DenseVector:
		return floats.Dot(d.values, o.values)
	case *SparseVector:
		var sum float64
		for n, idx := range o.indices {
			sum += d.values[idx] * o.values[n]
		}
		return sum
	default:
		var sum float64
		for i := range d.values {
			sum += d.values[i] * other.Get(i)
		}
		return sum
	}
}

func (d *DenseVector) Sum() float64 { return floats.Sum(d.values) }

func (d *DenseVector) TwoNorm() float64 { return floats.Norm(d.values, 2) }

func (d *DenseVector) OneNorm() float64 { return floats.Norm(d.values, 1) }

func (d *DenseVector) Normalize(n Normalizer) { n(d.values) }

func (d *DenseVector) EuclideanDistance(other Vector) float64 {
	checkDims(d, other)
	if o, ok := other.(*DenseVector); ok {
		return floats.Distance(d.values, o.values, 2)
	}
	var sum float64
	for i := range d.values {
		diff := d.values[i] - other.Get(i)
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func (d *DenseVector) L1Distance(other Vector) float64 {
	checkDims(d, other)
	if o, ok := other.(*DenseVector); ok {
		return floats.Distance(d.values, o.values, 1)
	}
	var sum float64
	for i := range d.values {
		sum += math.Abs(d.values[i] - other.Get(i))
	}
	return sum
}

func (d *DenseVector) CosineDistance(other Vector) float64 {
	return cosineDistance(d, other)
}

func (d *DenseVector) Equal(other Vector) bool {
	if d.Dims() != other.Dims() {
		return false
	}
	for i := range d.values {
		if d.values[i] != other.Get(i) {
			return false
		}
	}
	return true
}

func (d *DenseVector) ToSlice() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// cosineDistance is shared by both representations: 1 - a.b/(|a||b|).
// Identical vectors short-circuit to 0 so that exact duplicates never
// produce a nonzero distance through rounding.
func cosineDistance(a, b Vector) float64 {
	checkDims(a, b)
	if a.Equal(b) {
		return 0
	}
	denom := a.TwoNorm() * b.TwoNorm()
	if denom == 0 {
		return 1
	}
	return 1 - a.Dot(b)/denom
}
