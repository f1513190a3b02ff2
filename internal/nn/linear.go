// Package nn provides the layers the separation network is assembled from:
// linear and convolutional projections, layer normalisation variants,
// multi-head attention and the position-wise feed-forward block. Layers hold
// their own parameters and expose a forward pass plus a parameter count;
// gradients and training are out of scope.
package nn

import (
	"math/rand"

	"dptsep/internal/tensor"
)

// Linear is an affine projection y = W·x + b with W stored as (out, in).
type Linear struct {
	In, Out int
	W       tensor.Mat
	B       []float32
}

// NewLinear constructs a linear layer with parameters drawn from rng.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		In:  in,
		Out: out,
		W:   tensor.NewMat(out, in),
		B:   make([]float32, out),
	}
	tensor.FillRand(&l.W, rng)
	tensor.FillRandSlice(l.B, rng)
	return l
}

// Forward computes dst = W·x + b for a single feature vector.
func (l *Linear) Forward(dst, x []float32) {
	tensor.MatVec(dst, &l.W, x)
	for i := 0; i < l.Out; i++ {
		dst[i] += l.B[i]
	}
}

// ForwardSeq applies the projection to every row of x (positions, features).
// dst must be (x.R, Out) and must not alias x.
func (l *Linear) ForwardSeq(dst, x *tensor.Mat) {
	tensor.MatMulTransB(dst, x, &l.W)
	tensor.AddRowBias(dst, l.B)
}

// NumParameters returns the trainable element count.
func (l *Linear) NumParameters() int {
	return l.W.NumParameters() + len(l.B)
}
