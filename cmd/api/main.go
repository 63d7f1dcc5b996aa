package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api"
	"paper-trader/internal/backtest"
	"paper-trader/internal/bot"
	"paper-trader/internal/config"
	"paper-trader/internal/data"
	"paper-trader/internal/logging"
	"paper-trader/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.EnvFile != "" {
		logger.Info("loaded environment file", "path", cfg.EnvFile)
	}

	var cache *data.BarCache
	if cfg.CacheEnabled() {
		cache = data.NewBarCache(cfg.Alpaca.CacheTTL)
		defer cache.Close()
		logger.Info("bar cache enabled", "ttl", cfg.Alpaca.CacheTTL)
	}

	alpaca := data.NewAlpacaClient(data.AlpacaOptions{
		KeyID:           cfg.Alpaca.KeyID,
		SecretKey:       cfg.Alpaca.SecretKey,
		TradingURL:      cfg.Alpaca.TradingURL,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
		Timeout:         cfg.Alpaca.Timeout,
		Cache:           cache,
		Logger:          logger,
	})
	if !alpaca.Configured() {
		logger.Warn("Alpaca API keys not configured; market data and backtests will fail")
	}

	symbols := data.DefaultSymbols
	if cfg.Storage.SymbolsFile != "" {
		list, err := data.LoadSymbols(cfg.Storage.SymbolsFile)
		if err != nil {
			return fmt.Errorf("load symbols: %w", err)
		}
		symbols = list.Symbols
	}

	serverless := cfg.Serverless()
	if serverless {
		logger.Warn("serverless mode, bot data is read-only", "data_dir", cfg.Storage.DataDir)
	}

	router := api.NewRouter(api.Deps{
		Engine:      backtest.New(alpaca, logger),
		Bars:        alpaca,
		Results:     store.NewResultStore(cfg.BacktestDir(), logger),
		Bot:         bot.NewController(cfg.Storage.DataDir, serverless, logger),
		Catalog:     bot.NewCatalog(cfg.Storage.DataDir, serverless),
		Portfolio:   bot.NewPortfolio(cfg.Storage.DataDir),
		Market:      alpaca,
		Symbols:     symbols,
		Defaults:    cfg.BacktestDefaults(),
		CORSOrigins: cfg.Server.CORSOrigins,
		StaticDir:   cfg.Server.StaticDir,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
