package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"dptsep/internal/config"
	"dptsep/internal/dpt"
)

func inspectCmd() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the resolved configuration and parameter count of a model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "model config file (.yaml or .json)",
				Destination: &configPath,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			net, err := dpt.New(cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			c := net.Config()
			fmt.Fprintf(os.Stdout, "n_bases=%d kernel=%d stride=%d enc=%s dec=%s\n",
				c.Bases, c.Kernel, c.Stride, c.EncBases, c.DecBases)
			fmt.Fprintf(os.Stdout, "bottleneck=%d hidden=%d chunk=%d hop=%d blocks=%d heads=%d\n",
				c.BottleneckChannels, c.HiddenChannels, c.ChunkSize, c.HopSize, c.NumBlocks, c.NumHeads)
			fmt.Fprintf(os.Stdout, "causal=%v mask=%s sources=%d\n", c.Causal, c.MaskNonlinear, c.Sources)
			fmt.Fprintf(os.Stdout, "parameters=%d\n", net.NumParameters())
			return nil
		},
	}
}
