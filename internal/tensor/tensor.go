package tensor

import "fmt"

// Tensor is a dense row-major multi-dimensional array of float32 values.
// The last axis is contiguous. All network activations in this module are
// rank-3 (batch, channels, time) or rank-4 (batch, channels, chunk, frames)
// tensors; Tensor keeps the rank generic so both share one representation.
type Tensor struct {
	Shape []int
	Data  []float32
}

// New allocates a zero-initialised tensor with the given shape.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic("negative tensor dimension")
		}
		n *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float32, n),
	}
}

// NewFromData creates a tensor backed by existing data.
// It checks that the data length matches the shape volume.
func NewFromData(data []float32, shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic(fmt.Sprintf("tensor data length %d does not match shape %v", len(data), shape))
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  data,
	}
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.Shape) }

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int { return t.Shape[i] }

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.Data) }

// At3 reads element (i, j, k) of a rank-3 tensor.
func (t *Tensor) At3(i, j, k int) float32 {
	return t.Data[(i*t.Shape[1]+j)*t.Shape[2]+k]
}

// Set3 writes element (i, j, k) of a rank-3 tensor.
func (t *Tensor) Set3(i, j, k int, v float32) {
	t.Data[(i*t.Shape[1]+j)*t.Shape[2]+k] = v
}

// At4 reads element (i, j, k, l) of a rank-4 tensor.
func (t *Tensor) At4(i, j, k, l int) float32 {
	return t.Data[((i*t.Shape[1]+j)*t.Shape[2]+k)*t.Shape[3]+l]
}

// Set4 writes element (i, j, k, l) of a rank-4 tensor.
func (t *Tensor) Set4(i, j, k, l int, v float32) {
	t.Data[((i*t.Shape[1]+j)*t.Shape[2]+k)*t.Shape[3]+l] = v
}

// SameShape reports whether t and u have identical shapes.
func (t *Tensor) SameShape(u *Tensor) bool {
	if len(t.Shape) != len(u.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != u.Shape[i] {
			return false
		}
	}
	return true
}

// PadTime returns a copy of a rank-3 tensor (B, C, T) with left zeros
// prepended and right zeros appended along the time axis. Negative amounts
// trim instead of pad, which is how callers undo an earlier padding.
func PadTime(t *Tensor, left, right int) *Tensor {
	if t.Rank() != 3 {
		panic("PadTime expects a rank-3 tensor")
	}
	b, c, n := t.Shape[0], t.Shape[1], t.Shape[2]
	outN := n + left + right
	if outN < 0 {
		panic("PadTime would produce a negative time length")
	}
	out := New(b, c, outN)
	for i := 0; i < b; i++ {
		for j := 0; j < c; j++ {
			src := t.Data[(i*c+j)*n : (i*c+j)*n+n]
			dst := out.Data[(i*c+j)*outN : (i*c+j)*outN+outN]
			for k := 0; k < n; k++ {
				p := k + left
				if p < 0 || p >= outN {
					continue
				}
				dst[p] = src[k]
			}
		}
	}
	return out
}
