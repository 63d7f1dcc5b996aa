package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/bot"
)

// PortfolioReader returns documents written by the trading bot.
type PortfolioReader interface {
	Read(ctx context.Context, doc bot.Document) (json.RawMessage, error)
}

// PortfolioHandler serves trades, positions and performance as the bot wrote them.
type PortfolioHandler struct {
	reader PortfolioReader
}

func NewPortfolioHandler(reader PortfolioReader) *PortfolioHandler {
	return &PortfolioHandler{reader: reader}
}

// Trades handles GET /api/v1/trades
func (h *PortfolioHandler) Trades(c *gin.Context) { h.serve(c, bot.TradesDoc, "Failed to read trades") }

// Positions handles GET /api/v1/positions
func (h *PortfolioHandler) Positions(c *gin.Context) {
	h.serve(c, bot.PositionsDoc, "Failed to read positions")
}

// Performance handles GET /api/v1/performance
func (h *PortfolioHandler) Performance(c *gin.Context) {
	h.serve(c, bot.PerformanceDoc, "Failed to read performance")
}

func (h *PortfolioHandler) serve(c *gin.Context, doc bot.Document, failMsg string) {
	c.Header("Cache-Control", "no-store")
	raw, err := h.reader.Read(c.Request.Context(), doc)
	if err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}
	_ = c.Error(err)

	// Failures still carry the empty shape so the dashboard can render.
	body := map[string]any{}
	_ = json.Unmarshal(doc.Empty, &body)
	body["error"] = failMsg
	c.JSON(http.StatusInternalServerError, body)
}
