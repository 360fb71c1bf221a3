package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dfryer1193/blogo/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var cfg *config.Config

	root := &cli.Command{
		Name:    "blogo",
		Usage:   "Serve a blog whose posts are split into a teaser and a body",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config file",
				Value: config.DefaultPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var err error
			cfg, err = config.Load(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			if err := cfg.Validate(); err != nil {
				return ctx, err
			}

			level, _ := cfg.Level()
			if cmd.Bool("debug") {
				level = zerolog.DebugLevel
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}
			zerolog.SetGlobalLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cfg)
				},
			},
			{
				Name:      "split",
				Usage:     "Print the description and body rendered from a markdown file, or stdin",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return split(cfg, cmd.Args().First(), cmd.Bool("json"), os.Stdin, os.Stdout)
				},
			},
			{
				Name:  "sync",
				Usage: "Sync posts and images from the configured GitHub repository once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return syncOnce(ctx, cfg)
				},
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)

	err := root.Run(ctx, os.Args)
	cancel()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		log.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
