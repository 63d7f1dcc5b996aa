package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/models"
	"paper-trader/internal/data"
	"paper-trader/internal/model"
)

// MarketClient is the brokerage surface used by the dashboard.
type MarketClient interface {
	Configured() bool
	GetBars(ctx context.Context, p data.BarsParams) (*model.BarsResponse, error)
	GetLatestQuote(ctx context.Context, symbol string) (*model.Quote, error)
	GetClock(ctx context.Context) (*model.Clock, error)
	GetAccount(ctx context.Context) (*model.Account, error)
	GetPositions(ctx context.Context) ([]model.Position, error)
}

type MarketHandler struct {
	client  MarketClient
	symbols []data.SymbolInfo
	logger  *slog.Logger
	now     func() time.Time
}

func NewMarketHandler(client MarketClient, symbols []data.SymbolInfo, logger *slog.Logger) *MarketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if symbols == nil {
		symbols = data.DefaultSymbols
	}
	return &MarketHandler{
		client:  client,
		symbols: symbols,
		logger:  logger.With("component", "api"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Bars handles GET /api/v1/market-data/bars
func (h *MarketHandler) Bars(c *gin.Context) {
	var q models.BarsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(q.Symbol) == "" {
		badRequest(c, "Symbol parameter is required")
		return
	}
	if q.Timeframe == "" {
		q.Timeframe = "1Min"
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Days <= 0 {
		q.Days = 5
	}

	resp, err := h.client.GetBars(c.Request.Context(), data.BarsParams{
		Symbol:    q.Symbol,
		Timeframe: q.Timeframe,
		Start:     h.now().AddDate(0, 0, -q.Days),
		Limit:     q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	points := make([]models.BarPoint, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		points = append(points, models.BarPoint{
			Timestamp: b.Time,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	c.JSON(http.StatusOK, models.BarsResponse{Symbol: resp.Symbol, Bars: points})
}

// Quote handles GET /api/v1/market-data/quote
func (h *MarketHandler) Quote(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		badRequest(c, "Symbol parameter is required")
		return
	}
	q, err := h.client.GetLatestQuote(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.QuoteResponse{Quote: q})
}

// Clock handles GET /api/v1/market/status. The status banner always gets a
// body: missing keys report a closed market with an explanation.
func (h *MarketHandler) Clock(c *gin.Context) {
	if !h.client.Configured() {
		c.JSON(http.StatusOK, models.MarketStatusResponse{
			Timestamp: h.now(),
			Error:     "Alpaca API keys not configured",
		})
		return
	}
	clock, err := h.client.GetClock(c.Request.Context())
	if err != nil {
		h.logger.Warn("failed to fetch market clock", "error", err)
		_ = c.Error(err)
		status := http.StatusInternalServerError
		var uerr *data.UpstreamError
		if errors.As(err, &uerr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.MarketStatusResponse{
			Timestamp: h.now(),
			Error:     "Failed to fetch market status",
		})
		return
	}
	c.JSON(http.StatusOK, models.MarketStatusResponse{
		IsOpen:    clock.IsOpen,
		NextOpen:  &clock.NextOpen,
		NextClose: &clock.NextClose,
		Timestamp: clock.Timestamp,
	})
}

// Account handles GET /api/v1/account
func (h *MarketHandler) Account(c *gin.Context) {
	ctx := c.Request.Context()
	acct, err := h.client.GetAccount(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	positions, err := h.client.GetPositions(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AccountResponse{Account: acct, Positions: positions})
}

// ListSymbols handles GET /api/v1/symbols
func (h *MarketHandler) ListSymbols(c *gin.Context) {
	var q models.SymbolsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, models.SymbolListResponse{
		Symbols: data.FilterSymbols(h.symbols, data.SymbolFilter{
			Category:    q.Category,
			Query:       q.Query,
			PopularOnly: q.Popular,
		}),
		Categories: data.SymbolCategories,
	})
}
