package dpt

import (
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// GatedUnit turns the separator's sequence output into mask logits: two
// parallel kernel-1 convolutions whose outputs are combined as
// tanh(content) ⊙ sigmoid(gate).
type GatedUnit struct {
	content *nn.Conv1d
	gate    *nn.Conv1d
}

// NewGatedUnit constructs a gated unit mapping in channels to out channels.
func NewGatedUnit(in, out int, rng *rand.Rand) *GatedUnit {
	return &GatedUnit{
		content: nn.NewConv1d(in, out, 1, 1, true, rng),
		gate:    nn.NewConv1d(in, out, 1, 1, true, rng),
	}
}

// Forward maps x (B, in, T) to (B, out, T).
func (g *GatedUnit) Forward(x *tensor.Tensor) *tensor.Tensor {
	content := g.content.Forward(x)
	gate := g.gate.Forward(x)
	for i, v := range content.Data {
		content.Data[i] = tensor.Tanh(v) * tensor.Sigmoid(gate.Data[i])
	}
	return content
}

// NumParameters returns the trainable element count.
func (g *GatedUnit) NumParameters() int {
	return g.content.NumParameters() + g.gate.NumParameters()
}
