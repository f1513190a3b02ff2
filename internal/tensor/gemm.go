package tensor

// MatMul computes dst = a * b. Shapes: a is (M, K), b is (K, N), dst is (M, N).
// dst must not alias a or b.
func MatMul(dst, a, b *Mat) {
	if a.C != b.R || dst.R != a.R || dst.C != b.C {
		panic("matmul shape mismatch")
	}
	for i := 0; i < a.R; i++ {
		out := dst.Row(i)
		for j := range out {
			out[j] = 0
		}
		ar := a.Row(i)
		for k := 0; k < a.C; k++ {
			v := ar[k]
			if v == 0 {
				continue
			}
			br := b.Row(k)
			for j := range out {
				out[j] += v * br[j]
			}
		}
	}
}

// MatMulTransB computes dst = a * bᵀ. Shapes: a is (M, K), b is (N, K),
// dst is (M, N). The row-major layout makes this the natural orientation for
// projection weights stored as (out, in), so it is the hot entry point.
func MatMulTransB(dst, a, b *Mat) {
	if a.C != b.C || dst.R != a.R || dst.C != b.R {
		panic("matmul shape mismatch")
	}
	for i := 0; i < a.R; i++ {
		ar := a.Row(i)
		out := dst.Row(i)
		for j := 0; j < b.R; j++ {
			out[j] = Dot(ar, b.Row(j))
		}
	}
}

// AddRowBias adds bias to every row of m.
func AddRowBias(m *Mat, bias []float32) {
	if len(bias) < m.C {
		panic("bias shorter than row")
	}
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] += bias[j]
		}
	}
}
