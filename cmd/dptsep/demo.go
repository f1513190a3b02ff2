package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"dptsep/internal/config"
	"dptsep/internal/dpt"
	"dptsep/internal/tensor"
)

func demoCmd() *cli.Command {
	var (
		configPath string
		batch      int64
		length     int64
		seed       int64
		latent     bool
	)

	return &cli.Command{
		Name:  "demo",
		Usage: "Run a forward pass on random input and report shapes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "model config file (.yaml or .json); omit for the built-in demo model",
				Destination: &configPath,
			},
			&cli.Int64Flag{
				Name:        "batch",
				Usage:       "batch size",
				Value:       2,
				Destination: &batch,
			},
			&cli.Int64Flag{
				Name:        "length",
				Usage:       "input length in samples",
				Value:       64,
				Destination: &length,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "input RNG seed",
				Value:       42,
				Destination: &seed,
			},
			&cli.BoolFlag{
				Name:        "latent",
				Usage:       "also report the latent shape",
				Destination: &latent,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(os.Stderr)

			cfg := demoConfig()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}
			net, err := dpt.New(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			log.Info("model ready",
				"parameters", net.NumParameters(),
				"sources", net.Config().Sources,
				"causal", net.Config().Causal)

			rng := rand.New(rand.NewSource(seed))
			mix := tensor.New(int(batch), 1, int(length))
			tensor.FillRandSlice(mix.Data, rng)

			start := time.Now()
			out, lat, err := net.ExtractLatent(mix)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			log.Info("forward pass complete",
				"input", mix.Shape,
				"output", out.Shape,
				"duration", time.Since(start))
			if latent {
				log.Info("latent", "shape", lat.Shape)
			}
			return nil
		},
	}
}

// demoConfig is a small built-in model for smoke runs without a config file.
func demoConfig() dpt.Config {
	return dpt.Config{
		Bases:              12,
		Kernel:             8,
		Stride:             4,
		EncNonlinear:       "relu",
		BottleneckChannels: 32,
		HiddenChannels:     128,
		ChunkSize:          10,
		NumBlocks:          3,
		NumHeads:           4,
		MaskNonlinear:      dpt.MaskRelu,
		Sources:            2,
	}
}
