package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/config"
	"paper-trader/internal/data"
	"paper-trader/internal/logging"
	"paper-trader/internal/model"
)

func main() {
	app := &cli.App{
		Name:  "fetch-bars",
		Usage: "download daily Alpaca bars into JSON files for offline backtests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to YAML config file", EnvVars: []string{"CONFIG_FILE"}},
			&cli.StringSliceFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "ticker to fetch (repeatable)", Required: true},
			&cli.StringFlag{Name: "start", Usage: "first date (YYYY-MM-DD), default: --days before --end"},
			&cli.StringFlag{Name: "end", Usage: "last date (YYYY-MM-DD), default: today"},
			&cli.IntFlag{Name: "days", Value: 365, Usage: "lookback when --start is not given"},
			&cli.StringFlag{Name: "out", Value: "./data/bars", Usage: "output directory; files are named <SYMBOL>.json"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	end := time.Now().UTC()
	if s := c.String("end"); s != "" {
		if end, err = time.Parse(model.DateLayout, s); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	start := end.AddDate(0, 0, -c.Int("days"))
	if s := c.String("start"); s != "" {
		if start, err = time.Parse(model.DateLayout, s); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if start.After(end) {
		return fmt.Errorf("--start %s is after --end %s", start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	client := data.NewAlpacaClient(data.AlpacaOptions{
		KeyID:           cfg.Alpaca.KeyID,
		SecretKey:       cfg.Alpaca.SecretKey,
		TradingURL:      cfg.Alpaca.TradingURL,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
		Timeout:         cfg.Alpaca.Timeout,
		Logger:          logger,
	})
	if !client.Configured() {
		return fmt.Errorf("ALPACA_API_KEY and ALPACA_SECRET_KEY are required")
	}

	for _, raw := range c.StringSlice("symbol") {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		bars, err := client.DailyBars(c.Context, symbol, start, end)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", symbol, err)
		}
		path := filepath.Join(c.String("out"), symbol+".json")
		if err := data.SaveBarsJSON(&model.BarsResponse{Symbol: symbol, Bars: bars}, path); err != nil {
			return err
		}
		logger.Info("saved bars", "symbol", symbol, "bars", len(bars), "path", path)
		fmt.Printf("%s: %d bars %s..%s -> %s\n", symbol, len(bars),
			start.Format(model.DateLayout), end.Format(model.DateLayout), path)
	}
	return nil
}
