package bases

import (
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// convEncoder is the learned analysis transform: a strided Conv1d from the
// single waveform channel to Bases feature channels, optionally rectified.
type convEncoder struct {
	conv *nn.Conv1d
	relu bool
}

func newConvEncoder(bases, kernel, stride int, relu bool, rng *rand.Rand) *convEncoder {
	return &convEncoder{
		conv: nn.NewConv1d(1, bases, kernel, stride, false, rng),
		relu: relu,
	}
}

func (e *convEncoder) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := e.conv.Forward(x)
	if e.relu {
		nn.ReluInPlace(out.Data)
	}
	return out
}

func (e *convEncoder) NumParameters() int {
	return e.conv.NumParameters()
}

// convDecoder is the learned synthesis transform: a transposed Conv1d back
// to one waveform channel.
type convDecoder struct {
	conv *nn.ConvTranspose1d
}

func newConvDecoder(bases, kernel, stride int, rng *rand.Rand) *convDecoder {
	return &convDecoder{
		conv: nn.NewConvTranspose1d(bases, 1, kernel, stride, rng),
	}
}

func (d *convDecoder) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.conv.Forward(x)
}

func (d *convDecoder) NumParameters() int {
	return d.conv.NumParameters()
}
