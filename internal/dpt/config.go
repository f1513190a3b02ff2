package dpt

import (
	"errors"
	"fmt"

	"dptsep/internal/bases"
)

const defaultEps = 1e-12

// Mask nonlinearity names accepted by Config.MaskNonlinear.
const (
	MaskRelu    = "relu"
	MaskSigmoid = "sigmoid"
	MaskSoftmax = "softmax"
)

// ErrInvalidConfig is wrapped by every construction-time validation failure.
var ErrInvalidConfig = errors.New("invalid model configuration")

// ErrShape is wrapped by call-time shape contract violations.
var ErrShape = errors.New("shape contract violation")

// Config is the construction-time configuration of the network. Zero values
// for optional fields are replaced by Normalize; Validate rejects anything
// the forward graph cannot honour. Both run inside New, so a constructed
// Network never re-checks configuration on the hot path.
type Config struct {
	Bases  int
	Kernel int
	Stride int // defaults to Kernel/2

	EncBases     string // defaults to "trainable"
	DecBases     string // defaults to "trainable"
	EncNonlinear string // "" or "relu", trainable encoder only

	BottleneckChannels int // defaults to 64
	HiddenChannels     int // defaults to 256
	ChunkSize          int // defaults to 100
	HopSize            int // defaults to ChunkSize/2
	NumBlocks          int // defaults to 6
	NumHeads           int // defaults to 4

	Causal        bool
	MaskNonlinear string // defaults to "relu"
	Sources       int    // defaults to 2

	Eps  float32 // defaults to 1e-12
	Seed int64
}

// Normalize fills defaulted fields in place.
func (c *Config) Normalize() {
	if c.Stride == 0 {
		c.Stride = c.Kernel / 2
	}
	if c.EncBases == "" {
		c.EncBases = bases.KindTrainable
	}
	if c.DecBases == "" {
		c.DecBases = bases.KindTrainable
	}
	if c.BottleneckChannels == 0 {
		c.BottleneckChannels = 64
	}
	if c.HiddenChannels == 0 {
		c.HiddenChannels = 256
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 100
	}
	if c.HopSize == 0 {
		c.HopSize = c.ChunkSize / 2
	}
	if c.NumBlocks == 0 {
		c.NumBlocks = 6
	}
	if c.NumHeads == 0 {
		c.NumHeads = 4
	}
	if c.MaskNonlinear == "" {
		c.MaskNonlinear = MaskRelu
	}
	if c.Sources == 0 {
		c.Sources = 2
	}
	if c.Eps == 0 {
		c.Eps = defaultEps
	}
}

// Validate checks every construction invariant. It assumes Normalize ran.
func (c *Config) Validate() error {
	if c.Bases <= 0 || c.Kernel <= 0 || c.Stride <= 0 {
		return fmt.Errorf("%w: n_bases, kernel_size and stride must be positive", ErrInvalidConfig)
	}
	if c.Kernel%c.Stride != 0 {
		return fmt.Errorf("%w: kernel_size %d not divisible by stride %d", ErrInvalidConfig, c.Kernel, c.Stride)
	}
	if c.NumHeads <= 0 || c.Bases%c.NumHeads != 0 {
		return fmt.Errorf("%w: n_bases %d not divisible by num_heads %d", ErrInvalidConfig, c.Bases, c.NumHeads)
	}
	if c.BottleneckChannels%c.NumHeads != 0 {
		return fmt.Errorf("%w: bottleneck_channels %d not divisible by num_heads %d", ErrInvalidConfig, c.BottleneckChannels, c.NumHeads)
	}
	if c.ChunkSize <= 0 || c.HopSize <= 0 || c.HopSize > c.ChunkSize {
		return fmt.Errorf("%w: chunk_size %d / hop_size %d is not a valid chunk geometry", ErrInvalidConfig, c.ChunkSize, c.HopSize)
	}
	if c.NumBlocks <= 0 {
		return fmt.Errorf("%w: num_blocks must be positive", ErrInvalidConfig)
	}
	if c.Sources <= 0 {
		return fmt.Errorf("%w: n_sources must be positive", ErrInvalidConfig)
	}
	switch c.MaskNonlinear {
	case MaskRelu, MaskSigmoid, MaskSoftmax:
	default:
		return fmt.Errorf("%w: unrecognized mask nonlinearity %q", ErrInvalidConfig, c.MaskNonlinear)
	}
	return nil
}

// pymod reduces a modulo m into [0, m); a may be negative when the input is
// shorter than the window.
func pymod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// padSplit returns the left/right split of the padding that makes
// (length - window) divisible by step.
func padSplit(length, window, step int) (left, right int) {
	padding := pymod(step-pymod(length-window, step), step)
	left = padding / 2
	right = padding - left
	return left, right
}
