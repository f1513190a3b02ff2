package dpt

import (
	"fmt"
	"math/rand"

	"dptsep/internal/bases"
	"dptsep/internal/tensor"
)

// Network is the top-level separation model: basis encoder, separator and
// basis decoder, plus the padding that makes arbitrary input lengths
// compatible with the encoder stride and the separator chunk geometry.
type Network struct {
	cfg Config

	encoder bases.Encoder
	decoder bases.Decoder
	sep     *Separator

	numParameters int
}

// New validates cfg, fills its defaults and constructs the network. All
// configuration errors surface here; a returned Network cannot fail on
// configuration at call time.
func New(cfg Config) (*Network, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	enc, dec, err := bases.Choose(bases.Options{
		Bases:        cfg.Bases,
		Kernel:       cfg.Kernel,
		Stride:       cfg.Stride,
		EncKind:      cfg.EncBases,
		DecKind:      cfg.DecBases,
		EncNonlinear: cfg.EncNonlinear,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	n := &Network{
		cfg:     cfg,
		encoder: enc,
		decoder: dec,
		sep:     NewSeparator(cfg, rng),
	}
	n.numParameters = enc.NumParameters() + n.sep.NumParameters() + dec.NumParameters()
	return n, nil
}

// Config returns the normalised configuration the network was built with.
func (n *Network) Config() Config { return n.cfg }

// NumParameters returns the trainable element count, computed once at
// construction.
func (n *Network) NumParameters() int { return n.numParameters }

// Forward separates a waveform batch (B, 1, T) into (B, sources, T).
func (n *Network) Forward(mix *tensor.Tensor) (*tensor.Tensor, error) {
	out, _, err := n.ExtractLatent(mix)
	return out, err
}

// ExtractLatent separates the mixture and additionally returns the
// pre-decode masked representation (B, sources, N, T').
func (n *Network) ExtractLatent(mix *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	if mix.Rank() != 3 {
		return nil, nil, fmt.Errorf("%w: input must be rank-3 (batch, 1, time), got rank %d", ErrShape, mix.Rank())
	}
	if mix.Dim(1) != 1 {
		return nil, nil, fmt.Errorf("%w: input must have a single channel, got %d", ErrShape, mix.Dim(1))
	}
	batch, t := mix.Dim(0), mix.Dim(2)
	left, right := padSplit(t, n.cfg.Kernel, n.cfg.Stride)

	padded := tensor.PadTime(mix, left, right)
	enc := n.encoder.Forward(padded) // (B, N, T')
	mask := n.sep.Forward(enc)       // (B, sources, N, T')

	frames := enc.Dim(2)
	latent := tensor.New(batch, n.cfg.Sources, n.cfg.Bases, frames)
	for bi := 0; bi < batch; bi++ {
		for si := 0; si < n.cfg.Sources; si++ {
			for ni := 0; ni < n.cfg.Bases; ni++ {
				base := ((bi*n.cfg.Sources+si)*n.cfg.Bases + ni) * frames
				src := enc.Data[(bi*n.cfg.Bases+ni)*frames : (bi*n.cfg.Bases+ni+1)*frames]
				m := mask.Data[base : base+frames]
				dst := latent.Data[base : base+frames]
				for ti := 0; ti < frames; ti++ {
					dst[ti] = src[ti] * m[ti]
				}
			}
		}
	}

	// Decode every (batch, source) pair as its own waveform.
	flat := tensor.NewFromData(latent.Data, batch*n.cfg.Sources, n.cfg.Bases, frames)
	decoded := n.decoder.Forward(flat) // (B*sources, 1, T_padded)
	outT := decoded.Dim(2)
	stacked := tensor.NewFromData(decoded.Data, batch, n.cfg.Sources, outT)
	out := tensor.PadTime(stacked, -left, -right)
	return out, latent, nil
}
