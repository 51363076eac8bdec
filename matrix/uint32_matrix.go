package matrix

import (
	"fmt"
	"math"
)

// Uint32Matrix is a dense count matrix. The shape is checked once
// when the matrix is created; element access relies on the
// row-major layout and does not re-check it.
type Uint32Matrix struct {
	nrow uint32
	ncol uint32
	data []uint32
}

// NewUint32Matrix creates a new Uint32Matrix with r rows and c columns.
// A uint32 slice is used as the underlying storage and the data layout
// is in row major order, i.e. the (i*c + j)-th element in the data
// slice is the [i, j]-th element in the matrix. Vector is defined as a
// matrix with one column, i.e. a column vector.
func NewUint32Matrix(r, c int) (*Uint32Matrix, error) {
	if r <= 0 || c <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, r, c)
	}
	if uint64(r) > math.MaxUint32 || uint64(c) > math.MaxUint32 ||
		uint64(r)*uint64(c) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %dx%d exceeds addressable size", ErrBadShape, r, c)
	}
	return &Uint32Matrix{
		nrow: uint32(r),
		ncol: uint32(c),
		data: make([]uint32, r*c),
	}, nil
}

// get the shape of the matrix
func (m *Uint32Matrix) Shape() (uint32, uint32) {
	return m.nrow, m.ncol
}

// get the [r, c]-th element of the matrix
func (m *Uint32Matrix) Get(r, c uint32) uint32 {
	return m.data[r*m.ncol+c]
}

// Row returns the r-th row as a view on the underlying storage.
func (m *Uint32Matrix) Row(r uint32) []uint32 {
	return m.data[r*m.ncol : (r+1)*m.ncol : (r+1)*m.ncol]
}

// get a copy of the r-th row of the matrix
func (m *Uint32Matrix) GetRow(r uint32) []uint32 {
	if r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	row := make([]uint32, m.ncol)
	copy(row, m.Row(r))
	return row
}

// get a copy of the c-th column of the matrix
func (m *Uint32Matrix) GetCol(c uint32) []uint32 {
	if c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	column := make([]uint32, m.nrow)
	for r := uint32(0); r < m.nrow; r += 1 {
		column[r] = m.data[r*m.ncol+c]
	}
	return column
}

// set val to the [r, c]-th element of the matrix
func (m *Uint32Matrix) Set(r, c uint32, val uint32) {
	m.data[r*m.ncol+c] = val
}

// increment the [r, c]-th element of the matrix by val
func (m *Uint32Matrix) Incr(r, c uint32, val uint32) {
	m.data[r*m.ncol+c] += val
}

// decrement the [r, c]-th element of the matrix by val
func (m *Uint32Matrix) Decr(r, c uint32, val uint32) {
	m.data[r*m.ncol+c] -= val
}

// Equal reports whether o has the same shape and elements as m.
func (m *Uint32Matrix) Equal(o *Uint32Matrix) bool {
	if m.nrow != o.nrow || m.ncol != o.ncol {
		return false
	}
	for i, v := range m.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}
