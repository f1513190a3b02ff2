package nn

import (
	"dptsep/internal/tensor"
)

// LayerNorm normalises each position of a sequence over its feature axis and
// applies a learned per-feature affine transform. Used inside the transformer
// sub-layers, where it always sees one position at a time and is therefore
// causality-agnostic.
type LayerNorm struct {
	Dim   int
	Eps   float32
	Gamma []float32
	Beta  []float32
}

// NewLayerNorm constructs a layer norm with unit gain and zero shift.
func NewLayerNorm(dim int, eps float32) *LayerNorm {
	ln := &LayerNorm{
		Dim:   dim,
		Eps:   eps,
		Gamma: make([]float32, dim),
		Beta:  make([]float32, dim),
	}
	for i := range ln.Gamma {
		ln.Gamma[i] = 1
	}
	return ln
}

// ForwardSeq normalises every row of x in place.
func (ln *LayerNorm) ForwardSeq(x *tensor.Mat) {
	for i := 0; i < x.R; i++ {
		ln.forwardRow(x.Row(i))
	}
}

func (ln *LayerNorm) forwardRow(row []float32) {
	mean, variance := tensor.MeanVar(row)
	inv := invSqrt(variance + ln.Eps)
	for j := range row {
		row[j] = (row[j]-mean)*inv*ln.Gamma[j] + ln.Beta[j]
	}
}

// NumParameters returns the trainable element count.
func (ln *LayerNorm) NumParameters() int {
	return len(ln.Gamma) + len(ln.Beta)
}

// ChunkNorm normalises a chunked tensor (B, C, K, S). Implementations carry
// a per-channel affine transform; the causal variant must not let statistics
// at chunk index s depend on chunks after s.
type ChunkNorm interface {
	Forward(x *tensor.Tensor)
	NumParameters() int
}

// ChooseNorm returns the normalisation matching the causality mode: a global
// layer norm for non-causal models, a cumulative layer norm for causal ones.
func ChooseNorm(channels int, causal bool, eps float32) ChunkNorm {
	if causal {
		return NewCumulativeLayerNorm(channels, eps)
	}
	return NewGlobalLayerNorm(channels, eps)
}

// GlobalLayerNorm normalises over all non-batch axes of a chunked tensor
// with per-channel gain and shift.
type GlobalLayerNorm struct {
	Channels int
	Eps      float32
	Gamma    []float32
	Beta     []float32
}

// NewGlobalLayerNorm constructs a global layer norm with unit gain.
func NewGlobalLayerNorm(channels int, eps float32) *GlobalLayerNorm {
	g := &GlobalLayerNorm{
		Channels: channels,
		Eps:      eps,
		Gamma:    make([]float32, channels),
		Beta:     make([]float32, channels),
	}
	for i := range g.Gamma {
		g.Gamma[i] = 1
	}
	return g
}

// Forward normalises x (B, C, K, S) in place.
func (g *GlobalLayerNorm) Forward(x *tensor.Tensor) {
	if x.Rank() != 4 || x.Dim(1) != g.Channels {
		panic("global layer norm shape mismatch")
	}
	b, c, k, s := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	per := c * k * s
	for i := 0; i < b; i++ {
		sample := x.Data[i*per : (i+1)*per]
		mean, variance := tensor.MeanVar(sample)
		inv := invSqrt(variance + g.Eps)
		for ci := 0; ci < c; ci++ {
			ch := sample[ci*k*s : (ci+1)*k*s]
			gamma, beta := g.Gamma[ci], g.Beta[ci]
			for j := range ch {
				ch[j] = (ch[j]-mean)*inv*gamma + beta
			}
		}
	}
}

// NumParameters returns the trainable element count.
func (g *GlobalLayerNorm) NumParameters() int {
	return len(g.Gamma) + len(g.Beta)
}

// CumulativeLayerNorm is the causal normalisation: positions in chunk s are
// normalised with statistics accumulated over chunks 0..s across channels and
// intra-chunk positions, so no future chunk leaks backwards.
type CumulativeLayerNorm struct {
	Channels int
	Eps      float32
	Gamma    []float32
	Beta     []float32
}

// NewCumulativeLayerNorm constructs a cumulative layer norm with unit gain.
func NewCumulativeLayerNorm(channels int, eps float32) *CumulativeLayerNorm {
	c := &CumulativeLayerNorm{
		Channels: channels,
		Eps:      eps,
		Gamma:    make([]float32, channels),
		Beta:     make([]float32, channels),
	}
	for i := range c.Gamma {
		c.Gamma[i] = 1
	}
	return c
}

// Forward normalises x (B, C, K, S) in place.
func (c *CumulativeLayerNorm) Forward(x *tensor.Tensor) {
	if x.Rank() != 4 || x.Dim(1) != c.Channels {
		panic("cumulative layer norm shape mismatch")
	}
	b, ch, k, s := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	for i := 0; i < b; i++ {
		var sum, sq float64
		var count int
		for si := 0; si < s; si++ {
			// Fold chunk si into the running statistics.
			for ci := 0; ci < ch; ci++ {
				for ki := 0; ki < k; ki++ {
					v := float64(x.At4(i, ci, ki, si))
					sum += v
					sq += v * v
				}
			}
			count += ch * k
			mean := sum / float64(count)
			variance := sq/float64(count) - mean*mean
			if variance < 0 {
				variance = 0
			}
			inv := invSqrt(float32(variance) + c.Eps)
			for ci := 0; ci < ch; ci++ {
				gamma, beta := c.Gamma[ci], c.Beta[ci]
				for ki := 0; ki < k; ki++ {
					v := x.At4(i, ci, ki, si)
					x.Set4(i, ci, ki, si, (v-float32(mean))*inv*gamma+beta)
				}
			}
		}
	}
}

// NumParameters returns the trainable element count.
func (c *CumulativeLayerNorm) NumParameters() int {
	return len(c.Gamma) + len(c.Beta)
}
