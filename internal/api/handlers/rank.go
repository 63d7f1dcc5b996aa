package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/analysis"
	"paper-trader/internal/api/models"
	"paper-trader/internal/backtest"
	"paper-trader/internal/bot"
	"paper-trader/internal/model"
)

const maxRankSymbols = 25

// RankHandler handles ranking-related requests
type RankHandler struct {
	source backtest.BarSource
}

// NewRankHandler creates a new rank handler
func NewRankHandler(source backtest.BarSource) *RankHandler {
	return &RankHandler{source: source}
}

// RankSymbols handles GET /api/v1/rank
func (h *RankHandler) RankSymbols(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	startTime, err := time.Parse(model.DateLayout, req.StartDate)
	if err != nil {
		badRequest(c, "start_date must be in YYYY-MM-DD format")
		return
	}
	endTime, err := time.Parse(model.DateLayout, req.EndDate)
	if err != nil {
		badRequest(c, "end_date must be in YYYY-MM-DD format")
		return
	}
	if startTime.After(endTime) {
		badRequest(c, "start_date must not be after end_date")
		return
	}

	symbols := bot.NormalizeSymbols(strings.Split(req.Symbols, ","))
	if len(symbols) == 0 {
		badRequest(c, "At least one symbol is required")
		return
	}
	if len(symbols) > maxRankSymbols {
		badRequest(c, "Too many symbols; rank at most 25 at a time")
		return
	}

	// Fetch every symbol; any upstream failure aborts the ranking.
	bySymbol := make(map[string][]model.Bar, len(symbols))
	for _, sym := range symbols {
		bars, err := h.source.DailyBars(c.Request.Context(), sym, startTime, endTime)
		if err != nil {
			respondError(c, err)
			return
		}
		bySymbol[sym] = bars
	}

	ranked := analysis.RankByOracleReturn(bySymbol)

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:             i + 1,
			Symbol:           r.Symbol,
			Count:            r.Count,
			MinClose:         r.MinClose,
			MaxClose:         r.MaxClose,
			P05Close:         r.P05Close,
			P95Close:         r.P95Close,
			Volatility:       r.Volatility,
			BuyHoldReturnPct: r.BuyHoldReturnPct,
			OracleReturnPct:  r.OracleReturnPct,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}
