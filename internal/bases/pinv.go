package bases

import (
	"fmt"
	"math/rand"

	"dptsep/internal/nn"
	"dptsep/internal/tensor"
)

// pinvDecoder synthesises with the Moore-Penrose pseudo-inverse of the paired
// encoder's filterbank, Wᵀ(WWᵀ)⁻¹, frozen at construction. It has no
// parameters of its own.
type pinvDecoder struct {
	conv *nn.ConvTranspose1d
}

func newPinvDecoder(enc *convEncoder) (*pinvDecoder, error) {
	w := &enc.conv.W // (bases, kernel), input channel count is 1
	p, err := pseudoInverse(w)
	if err != nil {
		return nil, err
	}
	conv := nn.NewConvTranspose1d(w.R, 1, w.C, enc.conv.Stride, rand.New(rand.NewSource(0)))
	// conv weight layout is (in=bases, out*kernel); p is (kernel, bases).
	for n := 0; n < w.R; n++ {
		dst := conv.W.Row(n)
		for t := 0; t < w.C; t++ {
			dst[t] = p.Row(t)[n]
		}
	}
	return &pinvDecoder{conv: conv}, nil
}

func (d *pinvDecoder) Forward(x *tensor.Tensor) *tensor.Tensor {
	return d.conv.Forward(x)
}

func (d *pinvDecoder) NumParameters() int { return 0 }

// pseudoInverse computes Wᵀ(WWᵀ)⁻¹ for a full-row-rank W (R <= C).
func pseudoInverse(w *tensor.Mat) (tensor.Mat, error) {
	if w.R > w.C {
		return tensor.Mat{}, fmt.Errorf("basis transform: pinv requires bases <= kernel (%d > %d)", w.R, w.C)
	}
	gram := tensor.NewMat(w.R, w.R)
	for i := 0; i < w.R; i++ {
		for j := 0; j < w.R; j++ {
			gram.Row(i)[j] = tensor.Dot(w.Row(i), w.Row(j))
		}
	}
	inv, err := invert(&gram)
	if err != nil {
		return tensor.Mat{}, err
	}
	// p = Wᵀ · inv, shape (C, R).
	p := tensor.NewMat(w.C, w.R)
	for t := 0; t < w.C; t++ {
		row := p.Row(t)
		for j := 0; j < w.R; j++ {
			var sum float32
			for i := 0; i < w.R; i++ {
				sum += w.Row(i)[t] * inv.Row(i)[j]
			}
			row[j] = sum
		}
	}
	return p, nil
}

// invert performs Gauss-Jordan elimination with partial pivoting.
func invert(m *tensor.Mat) (tensor.Mat, error) {
	n := m.R
	a := tensor.NewMat(n, n)
	copy(a.Data, m.Data)
	inv := tensor.NewMat(n, n)
	for i := 0; i < n; i++ {
		inv.Row(i)[i] = 1
	}
	for col := 0; col < n; col++ {
		pivot := col
		best := abs32(a.Row(col)[col])
		for r := col + 1; r < n; r++ {
			if v := abs32(a.Row(r)[col]); v > best {
				best = v
				pivot = r
			}
		}
		if best == 0 {
			return tensor.Mat{}, fmt.Errorf("basis transform: encoder filterbank is rank deficient")
		}
		if pivot != col {
			swapRows(&a, pivot, col)
			swapRows(&inv, pivot, col)
		}
		p := a.Row(col)[col]
		scaleRow(a.Row(col), 1/p)
		scaleRow(inv.Row(col), 1/p)
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := a.Row(r)[col]
			if f == 0 {
				continue
			}
			axpy(a.Row(r), a.Row(col), -f)
			axpy(inv.Row(r), inv.Row(col), -f)
		}
	}
	return inv, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func swapRows(m *tensor.Mat, i, j int) {
	ri, rj := m.Row(i), m.Row(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

func scaleRow(row []float32, f float32) {
	for k := range row {
		row[k] *= f
	}
}

func axpy(dst, src []float32, f float32) {
	for k := range dst {
		dst[k] += f * src[k]
	}
}
