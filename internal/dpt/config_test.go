package dpt

import (
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{Bases: 12, Kernel: 8, Stride: 4}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Stride = 0
	cfg.Normalize()

	if cfg.Stride != 4 {
		t.Fatalf("stride default %d, want kernel/2", cfg.Stride)
	}
	if cfg.EncBases != "trainable" || cfg.DecBases != "trainable" {
		t.Fatalf("basis defaults %q/%q", cfg.EncBases, cfg.DecBases)
	}
	if cfg.BottleneckChannels != 64 || cfg.HiddenChannels != 256 {
		t.Fatalf("channel defaults %d/%d", cfg.BottleneckChannels, cfg.HiddenChannels)
	}
	if cfg.ChunkSize != 100 || cfg.HopSize != 50 {
		t.Fatalf("chunk defaults %d/%d", cfg.ChunkSize, cfg.HopSize)
	}
	if cfg.NumBlocks != 6 || cfg.NumHeads != 4 || cfg.Sources != 2 {
		t.Fatalf("structure defaults %d/%d/%d", cfg.NumBlocks, cfg.NumHeads, cfg.Sources)
	}
	if cfg.MaskNonlinear != MaskRelu {
		t.Fatalf("mask default %q", cfg.MaskNonlinear)
	}
	if cfg.Eps != defaultEps {
		t.Fatalf("eps default %v", cfg.Eps)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"kernel not divisible by stride", func(c *Config) { c.Kernel = 9; c.Stride = 4 }},
		{"bases not divisible by heads", func(c *Config) { c.Bases = 10; c.NumHeads = 3 }},
		{"bottleneck not divisible by heads", func(c *Config) { c.BottleneckChannels = 65 }},
		{"hop exceeds chunk", func(c *Config) { c.HopSize = 101 }},
		{"unknown mask nonlinearity", func(c *Config) { c.MaskNonlinear = "tanh" }},
		{"nonpositive bases", func(c *Config) { c.Bases = -1 }},
		{"nonpositive sources", func(c *Config) { c.Sources = -2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Normalize()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := validConfig()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestPymod(t *testing.T) {
	cases := []struct{ a, m, want int }{
		{7, 4, 3},
		{-1, 4, 3},
		{-8, 4, 0},
		{0, 5, 0},
		{-3, 5, 2},
	}
	for _, tc := range cases {
		if got := pymod(tc.a, tc.m); got != tc.want {
			t.Fatalf("pymod(%d, %d) = %d, want %d", tc.a, tc.m, got, tc.want)
		}
	}
}

func TestPadSplit(t *testing.T) {
	cases := []struct {
		length, window, step int
		wantLeft, wantRight  int
	}{
		{64, 8, 4, 0, 0}, // already aligned
		{63, 8, 4, 0, 1}, // one short
		{61, 8, 4, 1, 2}, // odd padding splits left-light
		{8, 8, 4, 0, 0},  // exactly one window
		{5, 8, 4, 1, 2},  // shorter than the window
	}
	for _, tc := range cases {
		left, right := padSplit(tc.length, tc.window, tc.step)
		if left != tc.wantLeft || right != tc.wantRight {
			t.Fatalf("padSplit(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.length, tc.window, tc.step, left, right, tc.wantLeft, tc.wantRight)
		}
		if pymod(tc.length+left+right-tc.window, tc.step) != 0 {
			t.Fatalf("padSplit(%d, %d, %d) did not align the length",
				tc.length, tc.window, tc.step)
		}
	}
}
