package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/backtest"
	"paper-trader/internal/data"
	"paper-trader/internal/store"
)

func backtestCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "run an SMA crossover backtest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "ticker to simulate", Required: true},
			&cli.StringFlag{Name: "start", Usage: "first date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "end", Usage: "last date (YYYY-MM-DD)", Required: true},
			&cli.Float64Flag{Name: "capital", Usage: "initial capital (default from config)"},
			&cli.IntFlag{Name: "short", Usage: "short SMA window (default from config)"},
			&cli.IntFlag{Name: "long", Usage: "long SMA window (default from config)"},
			&cli.StringFlag{Name: "data", Usage: "bars JSON file written by fetch-bars; Alpaca is used when empty"},
			&cli.StringFlag{Name: "out", Usage: "write trades CSV to this path"},
			&cli.StringFlag{Name: "equity-out", Usage: "write equity curve CSV to this path"},
			&cli.BoolFlag{Name: "save", Usage: "persist the result to the backtest store"},
		},
		Action: func(c *cli.Context) error {
			source, err := barSource(e, c.String("data"))
			if err != nil {
				return err
			}
			cfg := backtest.Config{
				Symbols:        []string{c.String("symbol")},
				StartDate:      c.String("start"),
				EndDate:        c.String("end"),
				InitialCapital: c.Float64("capital"),
				ShortWindow:    c.Int("short"),
				LongWindow:     c.Int("long"),
			}.WithDefaults(e.cfg.BacktestDefaults())

			res, err := backtest.New(source, e.logger).Run(c.Context, cfg)
			if err != nil {
				return err
			}

			if p := c.String("out"); p != "" {
				if err := ensureDir(p); err != nil {
					return err
				}
				if err := backtest.WriteTradesCSV(p, res.Trades); err != nil {
					return fmt.Errorf("write trades: %w", err)
				}
				fmt.Fprintf(e.out, "Wrote %d trades to %s\n", len(res.Trades), p)
			}
			if p := c.String("equity-out"); p != "" {
				if err := ensureDir(p); err != nil {
					return err
				}
				if err := backtest.WriteEquityCSV(p, res.EquityCurve); err != nil {
					return fmt.Errorf("write equity curve: %w", err)
				}
				fmt.Fprintf(e.out, "Wrote %d equity points to %s\n", len(res.EquityCurve), p)
			}
			if c.Bool("save") {
				if err := store.NewResultStore(e.cfg.BacktestDir(), e.logger).Create(c.Context, res); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Saved result %s\n", res.ID)
			}

			printMetrics(e, res)
			return nil
		},
	}
}

// barSource reads a saved file when path is set, otherwise Alpaca.
func barSource(e *env, path string) (backtest.BarSource, error) {
	if path != "" {
		return data.NewFileBarSource(path)
	}
	return newAlpaca(e), nil
}

func newAlpaca(e *env) *data.AlpacaClient {
	cfg := e.cfg
	return data.NewAlpacaClient(data.AlpacaOptions{
		KeyID:           cfg.Alpaca.KeyID,
		SecretKey:       cfg.Alpaca.SecretKey,
		TradingURL:      cfg.Alpaca.TradingURL,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
		Timeout:         cfg.Alpaca.Timeout,
		Logger:          e.logger,
	})
}

func printMetrics(e *env, res *backtest.Result) {
	m := res.Metrics
	tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "symbol\t%s\n", res.Config.Symbol())
	fmt.Fprintf(tw, "windows\t%d/%d\n", res.Config.ShortWindow, res.Config.LongWindow)
	fmt.Fprintf(tw, "final value\t$%.2f\n", m.FinalValue)
	fmt.Fprintf(tw, "total return\t$%.2f (%.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Fprintf(tw, "trades\t%d (%d won, %d lost, %.1f%% win rate)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate)
	fmt.Fprintf(tw, "max drawdown\t%.2f%%\n", m.MaxDrawdown)
	fmt.Fprintf(tw, "sharpe\t%.3f\n", m.SharpeRatio)
	tw.Flush()
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
