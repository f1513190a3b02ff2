package dpt

import (
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// Separator estimates a per-source multiplicative mask over the encoded
// representation: bottleneck projection, chunking, causal-aware
// normalisation, the dual-path stack, overlap-add, the gated unit and the
// mask nonlinearity, in that order.
type Separator struct {
	features int
	sources  int
	chunk    int
	hop      int

	bottleneck *nn.Conv1d
	norm       nn.ChunkNorm
	stack      *Stack
	gtu        *GatedUnit
	maskFn     func(mask *tensor.Tensor)
}

// NewSeparator constructs the separator for a validated configuration.
func NewSeparator(cfg Config, rng *rand.Rand) *Separator {
	s := &Separator{
		features:   cfg.Bases,
		sources:    cfg.Sources,
		chunk:      cfg.ChunkSize,
		hop:        cfg.HopSize,
		bottleneck: nn.NewConv1d(cfg.Bases, cfg.BottleneckChannels, 1, 1, true, rng),
		norm:       nn.ChooseNorm(cfg.BottleneckChannels, cfg.Causal, cfg.Eps),
		stack: NewStack(cfg.NumBlocks, cfg.BottleneckChannels, cfg.HiddenChannels,
			cfg.NumHeads, cfg.Causal, cfg.Eps, rng),
		gtu: NewGatedUnit(cfg.BottleneckChannels, cfg.Sources*cfg.Bases, rng),
	}
	// The nonlinearity name was validated at construction; resolve it into a
	// concrete function so the forward pass never branches on strings.
	switch cfg.MaskNonlinear {
	case MaskRelu:
		s.maskFn = func(mask *tensor.Tensor) { nn.ReluInPlace(mask.Data) }
	case MaskSigmoid:
		s.maskFn = func(mask *tensor.Tensor) {
			for i, v := range mask.Data {
				mask.Data[i] = tensor.Sigmoid(v)
			}
		}
	case MaskSoftmax:
		s.maskFn = softmaxOverSources
	default:
		panic("separator constructed from unvalidated configuration")
	}
	return s
}

// Forward maps the encoded mixture (B, N, T') to a mask (B, sources, N, T').
func (s *Separator) Forward(enc *tensor.Tensor) *tensor.Tensor {
	if enc.Rank() != 3 || enc.Dim(1) != s.features {
		panic("separator input shape mismatch")
	}
	batch, frames := enc.Dim(0), enc.Dim(2)
	left, right := padSplit(frames, s.chunk, s.hop)
	// Very short inputs can satisfy the hop divisibility while still being
	// shorter than one chunk; extend on the right (by a multiple of the hop)
	// until at least one chunk fits.
	if deficit := s.chunk - (frames + left + right); deficit > 0 {
		right += deficit
	}

	x := s.bottleneck.Forward(enc)
	x = tensor.PadTime(x, left, right)
	chunked := Segment(x, s.chunk, s.hop)
	s.norm.Forward(chunked)
	s.stack.Forward(chunked)
	x = OverlapAdd(chunked, s.chunk, s.hop)
	x = tensor.PadTime(x, -left, -right)

	logits := s.gtu.Forward(x) // (B, sources*N, T')
	mask := tensor.NewFromData(logits.Data, batch, s.sources, s.features, frames)
	s.maskFn(mask)
	return mask
}

// NumParameters returns the trainable element count.
func (s *Separator) NumParameters() int {
	return s.bottleneck.NumParameters() + s.norm.NumParameters() +
		s.stack.NumParameters() + s.gtu.NumParameters()
}

// softmaxOverSources normalises mask logits so that for every
// (batch, feature, frame) position the values across sources sum to one.
func softmaxOverSources(mask *tensor.Tensor) {
	b, src, n, t := mask.Dim(0), mask.Dim(1), mask.Dim(2), mask.Dim(3)
	col := make([]float32, src)
	for bi := 0; bi < b; bi++ {
		for ni := 0; ni < n; ni++ {
			for ti := 0; ti < t; ti++ {
				for si := 0; si < src; si++ {
					col[si] = mask.At4(bi, si, ni, ti)
				}
				tensor.Softmax(col)
				for si := 0; si < src; si++ {
					mask.Set4(bi, si, ni, ti, col[si])
				}
			}
		}
	}
}
