package dpt

import (
	"math/rand"
	"testing"

	"dptsep/internal/tensor"
)

func randomChunked(rng *rand.Rand, b, c, k, s int) *tensor.Tensor {
	x := tensor.New(b, c, k, s)
	for i := range x.Data {
		x.Data[i] = rng.Float32()*0.5 - 0.25
	}
	return x
}

func TestBlockPreservesShape(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	blk := NewBlock(16, 32, 4, false, 1e-12, rng)
	x := randomChunked(rng, 2, 16, 6, 5)
	shape := append([]int(nil), x.Shape...)

	blk.Forward(x)
	for i, d := range shape {
		if x.Dim(i) != d {
			t.Fatalf("shape changed: %v, want %v", x.Shape, shape)
		}
	}
}

func TestStackDeterministic(t *testing.T) {
	mk := func() (*Stack, *tensor.Tensor) {
		rng := rand.New(rand.NewSource(41))
		st := NewStack(3, 16, 32, 4, false, 1e-12, rng)
		x := randomChunked(rand.New(rand.NewSource(42)), 1, 16, 6, 4)
		return st, x
	}
	s1, x1 := mk()
	s2, x2 := mk()
	s1.Forward(x1)
	s2.Forward(x2)
	for i := range x1.Data {
		if x1.Data[i] != x2.Data[i] {
			t.Fatal("identical seeds produced different outputs")
		}
	}
}

func TestCausalStackIgnoresFutureChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	st := NewStack(2, 8, 16, 2, true, 1e-12, rng)

	x := randomChunked(rand.New(rand.NewSource(44)), 1, 8, 5, 6)
	y := tensor.New(1, 8, 5, 6)
	copy(y.Data, x.Data)
	// Perturb every position of the last two chunks.
	for ci := 0; ci < 8; ci++ {
		for ki := 0; ki < 5; ki++ {
			y.Set4(0, ci, ki, 4, y.At4(0, ci, ki, 4)+2)
			y.Set4(0, ci, ki, 5, y.At4(0, ci, ki, 5)-2)
		}
	}

	st.Forward(x)
	st.Forward(y)
	for si := 0; si < 4; si++ {
		for ci := 0; ci < 8; ci++ {
			for ki := 0; ki < 5; ki++ {
				if x.At4(0, ci, ki, si) != y.At4(0, ci, ki, si) {
					t.Fatalf("chunk %d changed by a future perturbation", si)
				}
			}
		}
	}
}

func TestNonCausalStackMixesChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(45))
	st := NewStack(1, 8, 16, 2, false, 1e-12, rng)

	x := randomChunked(rand.New(rand.NewSource(46)), 1, 8, 4, 5)
	y := tensor.New(1, 8, 4, 5)
	copy(y.Data, x.Data)
	for ci := 0; ci < 8; ci++ {
		for ki := 0; ki < 4; ki++ {
			y.Set4(0, ci, ki, 4, y.At4(0, ci, ki, 4)+2)
		}
	}

	st.Forward(x)
	st.Forward(y)
	changed := false
	for ci := 0; ci < 8 && !changed; ci++ {
		for ki := 0; ki < 4 && !changed; ki++ {
			if x.At4(0, ci, ki, 0) != y.At4(0, ci, ki, 0) {
				changed = true
			}
		}
	}
	if !changed {
		t.Fatal("non-causal stack did not propagate a future chunk backwards")
	}
}

func TestGatedUnitRangeAndShape(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	g := NewGatedUnit(6, 24, rng)
	x := tensor.New(2, 6, 9)
	for i := range x.Data {
		x.Data[i] = rng.Float32()*4 - 2
	}

	out := g.Forward(x)
	if out.Dim(0) != 2 || out.Dim(1) != 24 || out.Dim(2) != 9 {
		t.Fatalf("gated unit shape %v, want [2 24 9]", out.Shape)
	}
	for _, v := range out.Data {
		if v <= -1 || v >= 1 {
			t.Fatalf("gated output %v escapes (-1, 1)", v)
		}
	}
	if g.NumParameters() != 2*(6*24+24) {
		t.Fatalf("parameter count %d", g.NumParameters())
	}
}
