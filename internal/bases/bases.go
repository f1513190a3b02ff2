// Package bases supplies the analysis/synthesis transform pair that maps
// between waveforms and the feature representation the separator masks.
// The pair is capability-typed so alternative transforms can be substituted
// without touching the separation core.
package bases

import (
	"fmt"
	"math/rand"

	"dptsep/internal/tensor"
)

// Encoder maps a waveform batch (B, 1, T) to features (B, N, T').
type Encoder interface {
	Forward(x *tensor.Tensor) *tensor.Tensor
	NumParameters() int
}

// Decoder maps features (B, N, T') back to a waveform batch (B, 1, T_out).
type Decoder interface {
	Forward(x *tensor.Tensor) *tensor.Tensor
	NumParameters() int
}

// Known transform kinds.
const (
	KindTrainable = "trainable"
	KindFourier   = "fourier"
	KindPinv      = "pinv" // decoder only
)

// Options selects the transform pair.
type Options struct {
	Bases  int
	Kernel int
	Stride int

	EncKind string
	DecKind string

	// EncNonlinear optionally names an activation applied after the trainable
	// encoder ("" or "relu"). Ignored when the decoder is the pseudo-inverse
	// of the encoder, where a nonlinearity would break the pairing.
	EncNonlinear string
}

// Choose builds the encoder/decoder pair described by opts. Parameters are
// drawn from rng so identical seeds produce identical transforms.
func Choose(opts Options, rng *rand.Rand) (Encoder, Decoder, error) {
	if opts.Bases <= 0 || opts.Kernel <= 0 || opts.Stride <= 0 {
		return nil, nil, fmt.Errorf("basis transform: bases, kernel and stride must be positive")
	}

	encNonlinear := opts.EncNonlinear
	if opts.DecKind == KindPinv {
		encNonlinear = ""
	}
	switch encNonlinear {
	case "", "relu":
	default:
		return nil, nil, fmt.Errorf("basis transform: unsupported encoder nonlinearity %q", encNonlinear)
	}

	var enc Encoder
	switch opts.EncKind {
	case KindTrainable:
		enc = newConvEncoder(opts.Bases, opts.Kernel, opts.Stride, encNonlinear == "relu", rng)
	case KindFourier:
		fe, err := newFourierEncoder(opts.Bases, opts.Kernel, opts.Stride)
		if err != nil {
			return nil, nil, err
		}
		enc = fe
	default:
		return nil, nil, fmt.Errorf("basis transform: unknown encoder kind %q", opts.EncKind)
	}

	switch opts.DecKind {
	case KindTrainable:
		return enc, newConvDecoder(opts.Bases, opts.Kernel, opts.Stride, rng), nil
	case KindFourier:
		fd, err := newFourierDecoder(opts.Bases, opts.Kernel, opts.Stride)
		if err != nil {
			return nil, nil, err
		}
		return enc, fd, nil
	case KindPinv:
		ce, ok := enc.(*convEncoder)
		if !ok {
			return nil, nil, fmt.Errorf("basis transform: pinv decoder requires a trainable encoder")
		}
		pd, err := newPinvDecoder(ce)
		if err != nil {
			return nil, nil, err
		}
		return enc, pd, nil
	default:
		return nil, nil, fmt.Errorf("basis transform: unknown decoder kind %q", opts.DecKind)
	}
}
