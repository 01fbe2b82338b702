package la

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DenseMatrix is a 2-D array of float64 with row and column access,
// backed by a gonum dense matrix. A matrix is owned by the component
// that allocated it and is not shared across unrelated computations.
type DenseMatrix struct {
	m *mat.Dense
}

// NewDenseMatrix returns a zeroed rows x cols matrix.
func NewDenseMatrix(rows, cols int) *DenseMatrix {
	return &DenseMatrix{m: mat.NewDense(rows, cols, nil)}
}

// DenseMatrixFromRows builds a matrix from row slices, which must all
// have the same length. The data is copied.
func DenseMatrixFromRows(rows [][]float64) (*DenseMatrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("la: no rows supplied")
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return &DenseMatrix{m: mat.NewDense(len(rows), cols, flat)}, nil
}

// Rows returns the number of rows.
func (d *DenseMatrix) Rows() int {
	r, _ := d.m.Dims()
	return r
}

// Cols returns the number of columns.
func (d *DenseMatrix) Cols() int {
	_, c := d.m.Dims()
	return c
}

// At returns the element at (i, j).
func (d *DenseMatrix) At(i, j int) float64 { return d.m.At(i, j) }

// Set stores v at (i, j).
func (d *DenseMatrix) Set(i, j int, v float64) { d.m.Set(i, j, v) }

// RowVector returns row i as a dense vector sharing the matrix storage.
// Mutating the vector mutates the matrix.
func (d *DenseMatrix) RowVector(i int) *DenseVector {
	return denseVectorView(d.m.RawRowView(i))
}

// RowVectors returns every row as a vector view, in order. The views
// share the matrix storage.
func (d *DenseMatrix) RowVectors() []Vector {
	out := make([]Vector, d.Rows())
	for i := range out {
		out[i] = d.RowVector(i)
	}
	return out
}
