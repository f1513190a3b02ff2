package nn

import (
	"math"
	"math/rand"
	"testing"

	"dptsep/internal/tensor"
)

// referenceAttention is a straightforward single-loop implementation used to
// cross-check the head-blocked version.
func referenceAttention(a *MultiheadAttention, x *tensor.Mat) *tensor.Mat {
	l := x.R
	headDim := a.Dim / a.Heads
	scale := 1.0 / math.Sqrt(float64(headDim))

	q := tensor.NewMat(l, a.Dim)
	k := tensor.NewMat(l, a.Dim)
	v := tensor.NewMat(l, a.Dim)
	a.Wq.ForwardSeq(&q, x)
	a.Wk.ForwardSeq(&k, x)
	a.Wv.ForwardSeq(&v, x)

	concat := tensor.NewMat(l, a.Dim)
	for h := 0; h < a.Heads; h++ {
		off := h * headDim
		for i := 0; i < l; i++ {
			limit := l
			if a.Causal {
				limit = i + 1
			}
			weights := make([]float64, limit)
			var sum float64
			for j := 0; j < limit; j++ {
				var dot float64
				for d := 0; d < headDim; d++ {
					dot += float64(q.Row(i)[off+d]) * float64(k.Row(j)[off+d])
				}
				weights[j] = math.Exp(dot * scale)
				sum += weights[j]
			}
			for j := 0; j < limit; j++ {
				w := float32(weights[j] / sum)
				for d := 0; d < headDim; d++ {
					concat.Row(i)[off+d] += w * v.Row(j)[off+d]
				}
			}
		}
	}
	out := tensor.NewMat(l, a.Dim)
	a.Wo.ForwardSeq(&out, &concat)
	return &out
}

func TestAttentionMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	attn := NewMultiheadAttention(16, 4, false, rng)
	x := tensor.NewMat(9, 16)
	fillTestData(x.Data, 0.03)

	got := tensor.NewMat(9, 16)
	attn.Forward(&got, &x)
	want := referenceAttention(attn, &x)
	compareSlices(t, got.Data, want.Data, 1e-4)
}

func TestAttentionCausalMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	attn := NewMultiheadAttention(16, 4, true, rng)
	x := tensor.NewMat(9, 16)
	fillTestData(x.Data, 0.03)

	got := tensor.NewMat(9, 16)
	attn.Forward(&got, &x)
	want := referenceAttention(attn, &x)
	compareSlices(t, got.Data, want.Data, 1e-4)
}

func TestAttentionCausalIgnoresFuture(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	attn := NewMultiheadAttention(8, 2, true, rng)

	x := tensor.NewMat(6, 8)
	fillTestData(x.Data, 0.05)
	out := tensor.NewMat(6, 8)
	attn.Forward(&out, &x)

	// Perturb the tail of the sequence: outputs before the perturbation must
	// be byte-identical.
	y := tensor.NewMat(6, 8)
	copy(y.Data, x.Data)
	for j := range y.Row(4) {
		y.Row(4)[j] += 1
		y.Row(5)[j] -= 1
	}
	out2 := tensor.NewMat(6, 8)
	attn.Forward(&out2, &y)

	for i := 0; i < 4; i++ {
		compareSlices(t, out2.Row(i), out.Row(i), 0)
	}
}

func TestAttentionNonCausalSeesFuture(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	attn := NewMultiheadAttention(8, 2, false, rng)

	x := tensor.NewMat(6, 8)
	fillTestData(x.Data, 0.05)
	out := tensor.NewMat(6, 8)
	attn.Forward(&out, &x)

	y := tensor.NewMat(6, 8)
	copy(y.Data, x.Data)
	for j := range y.Row(5) {
		y.Row(5)[j] += 1
	}
	out2 := tensor.NewMat(6, 8)
	attn.Forward(&out2, &y)

	changed := false
	for j, v := range out2.Row(0) {
		if v != out.Row(0)[j] {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("non-causal attention did not propagate a future change backwards")
	}
}

func TestAttentionInvalidHeads(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for indivisible head width")
		}
	}()
	NewMultiheadAttention(10, 3, false, rand.New(rand.NewSource(1)))
}

func TestFeedForwardShape(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ff := NewFeedForward(12, 48, rng)
	x := tensor.NewMat(5, 12)
	fillTestData(x.Data, 0.05)

	out := tensor.NewMat(5, 12)
	ff.Forward(&out, &x)
	if ff.NumParameters() != 12*48+48+48*12+12 {
		t.Fatalf("parameter count %d", ff.NumParameters())
	}
}
