// Package api assembles the HTTP surface of the dashboard.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/handlers"
	"paper-trader/internal/api/middleware"
	"paper-trader/internal/backtest"
	"paper-trader/internal/data"
)

// ResultStore is the full result persistence surface.
type ResultStore interface {
	handlers.ResultCreator
	handlers.ResultStore
}

// Deps are the services behind the routes.
type Deps struct {
	Engine    handlers.BacktestRunner
	Bars      backtest.BarSource
	Results   ResultStore
	Bot       handlers.BotController
	Catalog   handlers.StrategyCatalog
	Portfolio handlers.PortfolioReader
	Market    handlers.MarketClient
	Symbols   []data.SymbolInfo
	Defaults  backtest.Defaults

	CORSOrigins []string
	StaticDir   string // empty or missing disables SPA serving
	Logger      *slog.Logger
}

// NewRouter wires middleware, /health and the /api/v1 routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	backtestHandler := handlers.NewBacktestHandler(d.Engine, d.Bars, d.Results, d.Defaults, logger)
	resultsHandler := handlers.NewResultsHandler(d.Results)
	botHandler := handlers.NewBotHandler(d.Bot)
	strategyHandler := handlers.NewStrategyHandler(d.Catalog)
	portfolioHandler := handlers.NewPortfolioHandler(d.Portfolio)
	marketHandler := handlers.NewMarketHandler(d.Market, d.Symbols, logger)
	rankHandler := handlers.NewRankHandler(d.Bars)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/backtest/run", backtestHandler.RunBacktest)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)
		api.GET("/backtest/strategies", backtestHandler.ListStrategies)
		api.GET("/backtest/results", resultsHandler.ListResults)
		api.GET("/backtest/results/:id", resultsHandler.GetResult)
		api.DELETE("/backtest/results", resultsHandler.DeleteResult)
		api.DELETE("/backtest/results/:id", resultsHandler.DeleteResult)

		api.GET("/bot/status", botHandler.Status)
		api.POST("/bot/control", botHandler.Control)
		api.POST("/bot/symbols", botHandler.UpdateSymbols)

		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/strategies/selection", strategyHandler.GetSelection)
		api.POST("/strategies/selection", strategyHandler.SaveSelection)

		api.GET("/trades", portfolioHandler.Trades)
		api.GET("/positions", portfolioHandler.Positions)
		api.GET("/performance", portfolioHandler.Performance)

		api.GET("/market-data/bars", marketHandler.Bars)
		api.GET("/market-data/quote", marketHandler.Quote)
		api.GET("/market/status", marketHandler.Clock)
		api.GET("/account", marketHandler.Account)
		api.GET("/symbols", marketHandler.ListSymbols)

		api.GET("/rank", rankHandler.RankSymbols)
	}

	serveStatic(router, d.StaticDir, logger)
	return router
}

// serveStatic serves the built dashboard with index.html as the SPA fallback.
func serveStatic(router *gin.Engine, staticDir string, logger *slog.Logger) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	}
	if staticDir == "" {
		router.NoRoute(notFound)
		return
	}
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		logger.Info("static directory not found, skipping static file serving", "dir", staticDir)
		router.NoRoute(notFound)
		return
	}

	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
	index := filepath.Join(staticDir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(index)
	})
	logger.Info("serving static files", "dir", staticDir)
}
