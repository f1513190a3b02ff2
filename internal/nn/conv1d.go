package nn

import (
	"math/rand"

	"dptsep/internal/tensor"
)

// Conv1d is a 1-D convolution over (batch, channels, time) tensors with no
// implicit padding. Weight layout is (out, in, kernel) flattened row-major.
type Conv1d struct {
	InC, OutC int
	Kernel    int
	Stride    int
	Bias      bool

	W tensor.Mat // (OutC, InC*Kernel)
	B []float32  // nil when Bias is false
}

// NewConv1d constructs a convolution with parameters drawn from rng.
func NewConv1d(inC, outC, kernel, stride int, bias bool, rng *rand.Rand) *Conv1d {
	c := &Conv1d{
		InC:    inC,
		OutC:   outC,
		Kernel: kernel,
		Stride: stride,
		Bias:   bias,
		W:      tensor.NewMat(outC, inC*kernel),
	}
	tensor.FillRand(&c.W, rng)
	if bias {
		c.B = make([]float32, outC)
		tensor.FillRandSlice(c.B, rng)
	}
	return c
}

// OutLen returns the output time length for an input of length t.
func (c *Conv1d) OutLen(t int) int {
	return (t-c.Kernel)/c.Stride + 1
}

// Forward computes the convolution of x (B, InC, T) into a new tensor
// (B, OutC, T') with T' = (T-Kernel)/Stride + 1.
func (c *Conv1d) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Rank() != 3 || x.Dim(1) != c.InC {
		panic("conv1d input shape mismatch")
	}
	batch, t := x.Dim(0), x.Dim(2)
	outT := c.OutLen(t)
	out := tensor.New(batch, c.OutC, outT)
	window := make([]float32, c.InC*c.Kernel)
	for b := 0; b < batch; b++ {
		for ot := 0; ot < outT; ot++ {
			start := ot * c.Stride
			for ic := 0; ic < c.InC; ic++ {
				src := x.Data[(b*c.InC+ic)*t+start : (b*c.InC+ic)*t+start+c.Kernel]
				copy(window[ic*c.Kernel:], src)
			}
			for oc := 0; oc < c.OutC; oc++ {
				v := tensor.Dot(c.W.Row(oc), window)
				if c.B != nil {
					v += c.B[oc]
				}
				out.Set3(b, oc, ot, v)
			}
		}
	}
	return out
}

// NumParameters returns the trainable element count.
func (c *Conv1d) NumParameters() int {
	return c.W.NumParameters() + len(c.B)
}

// ConvTranspose1d is the transposed (fractionally strided) counterpart of
// Conv1d, mapping (B, InC, T') to (B, OutC, (T'-1)*Stride+Kernel). Weight
// layout is (InC, OutC*Kernel) so each input channel scatters a kernel.
type ConvTranspose1d struct {
	InC, OutC int
	Kernel    int
	Stride    int

	W tensor.Mat // (InC, OutC*Kernel)
}

// NewConvTranspose1d constructs a transposed convolution without bias,
// parameters drawn from rng.
func NewConvTranspose1d(inC, outC, kernel, stride int, rng *rand.Rand) *ConvTranspose1d {
	c := &ConvTranspose1d{
		InC:    inC,
		OutC:   outC,
		Kernel: kernel,
		Stride: stride,
		W:      tensor.NewMat(inC, outC*kernel),
	}
	tensor.FillRand(&c.W, rng)
	return c
}

// OutLen returns the output time length for an input of length t.
func (c *ConvTranspose1d) OutLen(t int) int {
	return (t-1)*c.Stride + c.Kernel
}

// Forward scatters every input frame through the kernel, accumulating
// overlapping contributions.
func (c *ConvTranspose1d) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Rank() != 3 || x.Dim(1) != c.InC {
		panic("conv transpose input shape mismatch")
	}
	batch, t := x.Dim(0), x.Dim(2)
	outT := c.OutLen(t)
	out := tensor.New(batch, c.OutC, outT)
	for b := 0; b < batch; b++ {
		for it := 0; it < t; it++ {
			base := it * c.Stride
			for ic := 0; ic < c.InC; ic++ {
				v := x.At3(b, ic, it)
				if v == 0 {
					continue
				}
				row := c.W.Row(ic)
				for oc := 0; oc < c.OutC; oc++ {
					dst := out.Data[(b*c.OutC+oc)*outT+base : (b*c.OutC+oc)*outT+base+c.Kernel]
					ker := row[oc*c.Kernel : (oc+1)*c.Kernel]
					for k := range ker {
						dst[k] += v * ker[k]
					}
				}
			}
		}
	}
	return out
}

// NumParameters returns the trainable element count.
func (c *ConvTranspose1d) NumParameters() int {
	return c.W.NumParameters()
}
