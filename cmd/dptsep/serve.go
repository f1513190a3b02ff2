package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"dptsep/internal/api"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		configPath  string
		modelsPath  string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the separation REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "default model config file used when requests omit model",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "models-path",
				Usage:       "directory of model config files",
				Destination: &modelsPath,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(os.Stderr)

			provider := api.NewCachedModelProvider(api.ProviderConfig{
				DefaultConfigPath: configPath,
				ModelsPath:        modelsPath,
			})
			server := api.NewServer(provider, modelsPath)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
