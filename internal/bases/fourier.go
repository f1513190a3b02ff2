package bases

import (
	"fmt"
	"math"
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// fourierFilterbank builds the fixed analysis filters: Hann-windowed cosine
// and sine rows in interleaved pairs. bases must be even so every frequency
// bin gets both phases.
func fourierFilterbank(bases, kernel int) (tensor.Mat, error) {
	if bases%2 != 0 {
		return tensor.Mat{}, fmt.Errorf("basis transform: fourier bases must be even, got %d", bases)
	}
	w := tensor.NewMat(bases, kernel)
	for m := 0; m < bases/2; m++ {
		cos := w.Row(2 * m)
		sin := w.Row(2*m + 1)
		for t := 0; t < kernel; t++ {
			win := 0.5 - 0.5*math.Cos(2*math.Pi*float64(t)/float64(kernel))
			phase := 2 * math.Pi * float64(m) * float64(t) / float64(kernel)
			cos[t] = float32(win * math.Cos(phase))
			sin[t] = float32(win * math.Sin(phase))
		}
	}
	return w, nil
}

// fourierEncoder analyses the waveform with the fixed filterbank. It carries
// no trainable parameters.
type fourierEncoder struct {
	conv *nn.Conv1d
}

func newFourierEncoder(bases, kernel, stride int) (*fourierEncoder, error) {
	w, err := fourierFilterbank(bases, kernel)
	if err != nil {
		return nil, err
	}
	conv := nn.NewConv1d(1, bases, kernel, stride, false, rand.New(rand.NewSource(0)))
	copy(conv.W.Data, w.Data)
	return &fourierEncoder{conv: conv}, nil
}

func (e *fourierEncoder) Forward(x *tensor.Tensor) *tensor.Tensor {
	return e.conv.Forward(x)
}

func (e *fourierEncoder) NumParameters() int { return 0 }

// fourierDecoder synthesises by scattering the transposed filterbank,
// scaled by the frame length. No trainable parameters.
type fourierDecoder struct {
	conv *nn.ConvTranspose1d
}

func newFourierDecoder(bases, kernel, stride int) (*fourierDecoder, error) {
	w, err := fourierFilterbank(bases, kernel)
	if err != nil {
		return nil, err
	}
	conv := nn.NewConvTranspose1d(bases, 1, kernel, stride, rand.New(rand.NewSource(0)))
	scale := float32(1) / float32(kernel)
	for n := 0; n < bases; n++ {
		row := w.Row(n)
		dst := conv.W.Row(n)
		for t := 0; t < kernel; t++ {
			dst[t] = row[t] * scale
		}
	}
	return &fourierDecoder{conv: conv}, nil
}

func (d *fourierDecoder) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.conv.Forward(x)
}

func (d *fourierDecoder) NumParameters() int { return 0 }
