package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/analysis"
	"paper-trader/internal/api/models"
	"paper-trader/internal/backtest"
	"paper-trader/internal/model"
)

// BacktestRunner is the engine surface the handlers need.
type BacktestRunner interface {
	Run(ctx context.Context, cfg backtest.Config) (*backtest.Result, error)
	Simulate(cfg backtest.Config, bars []model.Bar) (*backtest.Result, error)
}

// ResultCreator persists finished runs.
type ResultCreator interface {
	Create(ctx context.Context, r *backtest.Result) error
}

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	engine   BacktestRunner
	source   backtest.BarSource
	results  ResultCreator
	defaults backtest.Defaults
	logger   *slog.Logger
}

// NewBacktestHandler creates a new backtest handler. source is used by
// comparisons, which fetch bars once and simulate every variation.
func NewBacktestHandler(engine BacktestRunner, source backtest.BarSource, results ResultCreator, defaults backtest.Defaults, logger *slog.Logger) *BacktestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BacktestHandler{
		engine:   engine,
		source:   source,
		results:  results,
		defaults: defaults,
		logger:   logger.With("component", "api"),
	}
}

// RunBacktest handles POST /api/v1/backtest/run
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cfg := req.ToConfig().WithDefaults(h.defaults)

	result, err := h.engine.Run(c.Request.Context(), cfg)
	if err != nil {
		h.logger.Warn("backtest failed", "symbols", cfg.Symbols, "error", err)
		respondError(c, err)
		return
	}
	if err := h.results.Create(c.Request.Context(), result); err != nil {
		h.logger.Error("failed to save backtest result", "id", result.ID, "error", err)
		respondError(c, fmt.Errorf("save backtest result: %w", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	base := req.BaseConfig.ToConfig().WithDefaults(h.defaults)
	if err := base.Validate(); err != nil {
		respondError(c, err)
		return
	}
	start, end, _ := base.DateRange()
	symbol := base.Symbol()

	// Fetch data once
	bars, err := h.source.DailyBars(c.Request.Context(), symbol, start, end)
	if err != nil {
		respondError(c, fmt.Errorf("fetch bars for %s: %w", symbol, err))
		return
	}

	var (
		ok     []*backtest.Result
		byID   = map[string]models.ComparisonResult{}
		failed []models.ComparisonResult
	)
	for i, v := range req.Variations {
		cfg := v.Apply(base)
		entry := models.ComparisonResult{
			Name:        v.Name,
			ShortWindow: cfg.ShortWindow,
			LongWindow:  cfg.LongWindow,
		}
		result, err := h.engine.Simulate(cfg, bars)
		if err != nil {
			entry.Error = err.Error()
			failed = append(failed, entry)
			continue
		}
		// Comparison runs are never stored; the id only pairs ranks with entries.
		result.ID = strconv.Itoa(i)
		entry.Metrics = result.Metrics
		byID[result.ID] = entry
		ok = append(ok, result)
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, r := range analysis.RankRuns(ok) {
		entry := byID[r.Result.ID]
		entry.Rank = r.Rank
		comparison = append(comparison, entry)
	}
	comparison = append(comparison, failed...)

	c.JSON(http.StatusOK, models.CompareBacktestResponse{
		Symbol:     symbol,
		Bars:       len(bars),
		Comparison: comparison,
	})
}

// ListStrategies handles GET /api/v1/backtest/strategies
func (h *BacktestHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": []models.StrategyInfo{
		{
			Name:        "SMACrossover",
			Description: "Long-only moving average crossover. Buys with all cash when the short SMA is above the long SMA and sells the whole position when it is below.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "short_window",
					Type:        "int",
					Description: "Short SMA window in trading days (>= 2)",
					Default:     h.defaults.ShortWindow,
				},
				{
					Name:        "long_window",
					Type:        "int",
					Description: "Long SMA window in trading days (> short_window); also the warmup length",
					Default:     h.defaults.LongWindow,
				},
				{
					Name:        "initial_capital",
					Type:        "float",
					Description: "Starting cash in USD",
					Default:     h.defaults.InitialCapital,
				},
			},
		},
	}})
}
