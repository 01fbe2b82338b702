package la

import "gonum.org/v1/gonum/floats"

// L2Normalize scales values to unit Euclidean norm. A zero vector is
// left unchanged.
func L2Normalize(values []float64) {
	norm := floats.Norm(values, 2)
	if norm == 0 {
		return
	}
	floats.Scale(1/norm, values)
}

// SumNormalize scales values so they sum to one. A zero-sum vector is
// left unchanged.
func SumNormalize(values []float64) {
	sum := floats.Sum(values)
	if sum == 0 {
		return
	}
	floats.Scale(1/sum, values)
}
