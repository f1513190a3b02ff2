package dpt

import (
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// Block is one dual-path processing unit over a chunked tensor (B, C, K, S):
// an intra-chunk pass models the K positions inside each chunk, then an
// inter-chunk pass models the S chunks at each intra-chunk position. Each
// pass is attention followed by a feed-forward sub-layer, both in post-norm
// residual form. The intra pass is always bidirectional; the inter pass is
// masked autoregressively over the chunk index when the model is causal.
type Block struct {
	dim int

	intra *pass
	inter *pass
}

type pass struct {
	attn  *nn.MultiheadAttention
	norm1 *nn.LayerNorm
	ff    *nn.FeedForward
	norm2 *nn.LayerNorm
}

func newPass(dim, hidden, heads int, causal bool, eps float32, rng *rand.Rand) *pass {
	return &pass{
		attn:  nn.NewMultiheadAttention(dim, heads, causal, rng),
		norm1: nn.NewLayerNorm(dim, eps),
		ff:    nn.NewFeedForward(dim, hidden, rng),
		norm2: nn.NewLayerNorm(dim, eps),
	}
}

// NewBlock constructs a block of width dim with independent parameters.
func NewBlock(dim, hidden, heads int, causal bool, eps float32, rng *rand.Rand) *Block {
	return &Block{
		dim:   dim,
		intra: newPass(dim, hidden, heads, false, eps, rng),
		inter: newPass(dim, hidden, heads, causal, eps, rng),
	}
}

// forwardSeq runs one pass over a sequence x (positions, dim) in place.
func (p *pass) forwardSeq(x, scratch *tensor.Mat) {
	p.attn.Forward(scratch, x)
	tensor.Add(x.Data, scratch.Data)
	p.norm1.ForwardSeq(x)
	p.ff.Forward(scratch, x)
	tensor.Add(x.Data, scratch.Data)
	p.norm2.ForwardSeq(x)
}

// Forward transforms x (B, C, K, S) in place.
func (b *Block) Forward(x *tensor.Tensor) {
	if x.Rank() != 4 || x.Dim(1) != b.dim {
		panic("dual-path block input shape mismatch")
	}
	batch, c, k, s := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)

	// Intra-chunk: sequences of length K for every (batch, chunk) pair.
	seq := tensor.NewMat(k, c)
	scratch := tensor.NewMat(k, c)
	for bi := 0; bi < batch; bi++ {
		for si := 0; si < s; si++ {
			for ki := 0; ki < k; ki++ {
				row := seq.Row(ki)
				for ci := 0; ci < c; ci++ {
					row[ci] = x.At4(bi, ci, ki, si)
				}
			}
			b.intra.forwardSeq(&seq, &scratch)
			for ki := 0; ki < k; ki++ {
				row := seq.Row(ki)
				for ci := 0; ci < c; ci++ {
					x.Set4(bi, ci, ki, si, row[ci])
				}
			}
		}
	}

	// Inter-chunk: sequences of length S for every (batch, position) pair.
	seq = tensor.NewMat(s, c)
	scratch = tensor.NewMat(s, c)
	for bi := 0; bi < batch; bi++ {
		for ki := 0; ki < k; ki++ {
			for si := 0; si < s; si++ {
				row := seq.Row(si)
				for ci := 0; ci < c; ci++ {
					row[ci] = x.At4(bi, ci, ki, si)
				}
			}
			b.inter.forwardSeq(&seq, &scratch)
			for si := 0; si < s; si++ {
				row := seq.Row(si)
				for ci := 0; ci < c; ci++ {
					x.Set4(bi, ci, ki, si, row[ci])
				}
			}
		}
	}
}

// NumParameters returns the trainable element count.
func (b *Block) NumParameters() int {
	return b.intra.numParameters() + b.inter.numParameters()
}

func (p *pass) numParameters() int {
	return p.attn.NumParameters() + p.norm1.NumParameters() +
		p.ff.NumParameters() + p.norm2.NumParameters()
}

// Stack applies NumBlocks blocks sequentially, each with its own parameters.
type Stack struct {
	blocks []*Block
}

// NewStack constructs the dual-path transformer stack.
func NewStack(num, dim, hidden, heads int, causal bool, eps float32, rng *rand.Rand) *Stack {
	blocks := make([]*Block, num)
	for i := range blocks {
		blocks[i] = NewBlock(dim, hidden, heads, causal, eps, rng)
	}
	return &Stack{blocks: blocks}
}

// Forward transforms x (B, C, K, S) in place.
func (s *Stack) Forward(x *tensor.Tensor) {
	for _, b := range s.blocks {
		b.Forward(x)
	}
}

// NumParameters returns the trainable element count.
func (s *Stack) NumParameters() int {
	var n int
	for _, b := range s.blocks {
		n += b.NumParameters()
	}
	return n
}
