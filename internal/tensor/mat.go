package tensor

import "math/rand"

// Mat is a dense row-major matrix of float32 values.
//
// R and C are the number of rows and columns. Stride is the number of
// elements between the starts of two consecutive rows; for matrices created
// by this package it equals C. Data holds the flattened values.
//
// Mat performs no memory safety beyond the checks done by Go's slice types;
// out-of-range indices panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a zero-initialised matrix with the given dimensions.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix backed by existing data.
// It checks that the data length matches r*c.
func NewMatFromData(r, c int, data []float32) Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}
}

// Row returns a view of the i-th row. Modifications to the returned slice
// update the underlying matrix values.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// NumParameters returns the number of elements held by the matrix.
func (m *Mat) NumParameters() int {
	return m.R * m.C
}

// FillRand fills the matrix with pseudo-random values drawn from rng,
// uniform in (-0.1, 0.1).
func FillRand(m *Mat, rng *rand.Rand) {
	for i := range m.Data {
		m.Data[i] = (rng.Float32() - 0.5) * 0.2
	}
}

// FillRandSlice fills a vector with the same distribution as FillRand.
func FillRandSlice(x []float32, rng *rand.Rand) {
	for i := range x {
		x[i] = (rng.Float32() - 0.5) * 0.2
	}
}
