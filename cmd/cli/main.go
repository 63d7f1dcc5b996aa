package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/config"
	"paper-trader/internal/logging"
)

// env carries the loaded config and logger to every subcommand.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	out    io.Writer
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	e := &env{out: out}
	return &cli.App{
		Name:      "cli",
		Usage:     "run SMA crossover backtests and manage the paper-trading bot from a terminal",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closer, err := logging.New(cfg.Log, os.Stderr)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			e.cfg, e.logger, e.closer = cfg, logger, closer
			return nil
		},
		After: func(*cli.Context) error {
			if e.closer != nil {
				return e.closer.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			backtestCommand(e),
			resultsCommand(e),
			botCommand(e),
			rankCommand(e),
		},
	}
}
