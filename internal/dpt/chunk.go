// Package dpt implements the dual-path transformer separation network: an
// encoded mixture is split into overlapping chunks, modelled alternately
// within and across chunks by stacked attention blocks, reassembled by
// overlap-add, and turned into per-source multiplicative masks.
package dpt

import "dptsep/internal/tensor"

// Segment splits x (B, C, T) into overlapping chunks of length chunk taken
// every hop positions, producing (B, C, chunk, S) with S = (T-chunk)/hop + 1.
// The caller is responsible for padding T so that (T-chunk) divides by hop.
func Segment(x *tensor.Tensor, chunk, hop int) *tensor.Tensor {
	if x.Rank() != 3 {
		panic("segment expects a rank-3 tensor")
	}
	b, c, t := x.Dim(0), x.Dim(1), x.Dim(2)
	if t < chunk || (t-chunk)%hop != 0 {
		panic("segment input length not compatible with chunk geometry")
	}
	s := (t-chunk)/hop + 1
	out := tensor.New(b, c, chunk, s)
	for i := 0; i < b; i++ {
		for j := 0; j < c; j++ {
			src := x.Data[(i*c+j)*t : (i*c+j+1)*t]
			for si := 0; si < s; si++ {
				off := si * hop
				for k := 0; k < chunk; k++ {
					out.Set4(i, j, k, si, src[off+k])
				}
			}
		}
	}
	return out
}

// OverlapAdd is the inverse of Segment: chunks (B, C, chunk, S) are summed
// back onto the time axis at hop spacing and every position is divided by the
// number of chunks covering it, so OverlapAdd(Segment(x)) == x exactly.
func OverlapAdd(x *tensor.Tensor, chunk, hop int) *tensor.Tensor {
	if x.Rank() != 4 {
		panic("overlap-add expects a rank-4 tensor")
	}
	b, c, k, s := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	if k != chunk {
		panic("overlap-add chunk size mismatch")
	}
	t := (s-1)*hop + chunk
	out := tensor.New(b, c, t)
	counts := make([]float32, t)
	for si := 0; si < s; si++ {
		for ki := 0; ki < chunk; ki++ {
			counts[si*hop+ki]++
		}
	}
	for i := 0; i < b; i++ {
		for j := 0; j < c; j++ {
			dst := out.Data[(i*c+j)*t : (i*c+j+1)*t]
			for si := 0; si < s; si++ {
				off := si * hop
				for ki := 0; ki < chunk; ki++ {
					dst[off+ki] += x.At4(i, j, ki, si)
				}
			}
			for p := range dst {
				dst[p] /= counts[p]
			}
		}
	}
	return out
}
