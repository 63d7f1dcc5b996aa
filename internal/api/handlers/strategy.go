package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/models"
	"paper-trader/internal/bot"
)

// StrategyCatalog serves the bot's strategy catalog and the saved selection.
type StrategyCatalog interface {
	Strategies(ctx context.Context) (json.RawMessage, error)
	Selection(ctx context.Context) (bot.Selection, error)
	SaveSelection(ctx context.Context, selected map[string]any) (bot.Selection, error)
}

// StrategyHandler handles strategy-related requests
type StrategyHandler struct {
	catalog StrategyCatalog
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(catalog StrategyCatalog) *StrategyHandler {
	return &StrategyHandler{catalog: catalog}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	raw, err := h.catalog.Strategies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// GetSelection handles GET /api/v1/strategies/selection
func (h *StrategyHandler) GetSelection(c *gin.Context) {
	sel, err := h.catalog.Selection(c.Request.Context())
	if err != nil {
		// The dashboard renders an empty selection rather than an error page.
		c.JSON(http.StatusOK, gin.H{
			"selected_strategies": sel.SelectedStrategies,
			"last_updated":        sel.LastUpdated,
			"error":               "Failed to read strategy selection",
		})
		return
	}
	c.JSON(http.StatusOK, sel)
}

// SaveSelection handles POST /api/v1/strategies/selection
func (h *StrategyHandler) SaveSelection(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bot.ErrInvalidSelection)
		return
	}
	sel, err := h.catalog.SaveSelection(c.Request.Context(), req.SelectedStrategies)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SelectionResponse{
		Success:   true,
		Message:   "Strategy selection saved successfully",
		Selection: sel,
	})
}
