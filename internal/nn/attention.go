package nn

import (
	"math"
	"math/rand"

	"dptsep/internal/tensor"
)

// MultiheadAttention is scaled dot-product self-attention over a sequence of
// feature vectors, with Heads parallel heads of width Dim/Heads. When Causal
// is set, position i only attends to positions <= i.
type MultiheadAttention struct {
	Dim    int
	Heads  int
	Causal bool

	Wq, Wk, Wv, Wo *Linear
}

// NewMultiheadAttention constructs an attention layer. Dim must be divisible
// by heads; the caller validates that at network construction.
func NewMultiheadAttention(dim, heads int, causal bool, rng *rand.Rand) *MultiheadAttention {
	if heads <= 0 || dim%heads != 0 {
		panic("attention width not divisible by head count")
	}
	return &MultiheadAttention{
		Dim:    dim,
		Heads:  heads,
		Causal: causal,
		Wq:     NewLinear(dim, dim, rng),
		Wk:     NewLinear(dim, dim, rng),
		Wv:     NewLinear(dim, dim, rng),
		Wo:     NewLinear(dim, dim, rng),
	}
}

// Forward computes self-attention over x (positions, Dim) into dst of the
// same shape. dst must not alias x.
func (a *MultiheadAttention) Forward(dst, x *tensor.Mat) {
	if x.C != a.Dim || dst.R != x.R || dst.C != x.C {
		panic("attention input shape mismatch")
	}
	l := x.R
	headDim := a.Dim / a.Heads
	scale := float32(1.0 / math.Sqrt(float64(headDim)))

	q := tensor.NewMat(l, a.Dim)
	k := tensor.NewMat(l, a.Dim)
	v := tensor.NewMat(l, a.Dim)
	a.Wq.ForwardSeq(&q, x)
	a.Wk.ForwardSeq(&k, x)
	a.Wv.ForwardSeq(&v, x)

	concat := tensor.NewMat(l, a.Dim)
	scores := make([]float32, l)
	for h := 0; h < a.Heads; h++ {
		off := h * headDim
		for i := 0; i < l; i++ {
			qi := q.Row(i)[off : off+headDim]
			limit := l
			if a.Causal {
				limit = i + 1
			}
			for j := 0; j < limit; j++ {
				scores[j] = tensor.Dot(qi, k.Row(j)[off:off+headDim]) * scale
			}
			tensor.Softmax(scores[:limit])
			out := concat.Row(i)[off : off+headDim]
			for d := range out {
				out[d] = 0
			}
			for j := 0; j < limit; j++ {
				w := scores[j]
				vj := v.Row(j)[off : off+headDim]
				for d := range out {
					out[d] += w * vj[d]
				}
			}
		}
	}
	a.Wo.ForwardSeq(dst, &concat)
}

// NumParameters returns the trainable element count.
func (a *MultiheadAttention) NumParameters() int {
	return a.Wq.NumParameters() + a.Wk.NumParameters() +
		a.Wv.NumParameters() + a.Wo.NumParameters()
}

// FeedForward is the position-wise two-layer projection used after each
// attention pass: relu(x·W1ᵀ+b1)·W2ᵀ+b2.
type FeedForward struct {
	Dim, Hidden int

	W1, W2 *Linear
}

// NewFeedForward constructs a feed-forward block with hidden width hidden.
func NewFeedForward(dim, hidden int, rng *rand.Rand) *FeedForward {
	return &FeedForward{
		Dim:    dim,
		Hidden: hidden,
		W1:     NewLinear(dim, hidden, rng),
		W2:     NewLinear(hidden, dim, rng),
	}
}

// Forward applies the block to every row of x into dst of the same shape.
// dst must not alias x.
func (f *FeedForward) Forward(dst, x *tensor.Mat) {
	if x.C != f.Dim || dst.R != x.R || dst.C != x.C {
		panic("feed-forward input shape mismatch")
	}
	hidden := tensor.NewMat(x.R, f.Hidden)
	f.W1.ForwardSeq(&hidden, x)
	ReluInPlace(hidden.Data)
	f.W2.ForwardSeq(dst, &hidden)
}

// NumParameters returns the trainable element count.
func (f *FeedForward) NumParameters() int {
	return f.W1.NumParameters() + f.W2.NumParameters()
}
