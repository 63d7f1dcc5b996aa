package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/models"
	"paper-trader/internal/backtest"
)

// ResultStore is the persisted backtest history.
type ResultStore interface {
	Get(ctx context.Context, id string) (*backtest.Result, error)
	List(ctx context.Context) ([]*backtest.Result, error)
	Delete(ctx context.Context, id string) error
}

type ResultsHandler struct {
	store ResultStore
}

func NewResultsHandler(store ResultStore) *ResultsHandler {
	return &ResultsHandler{store: store}
}

// ListResults handles GET /api/v1/backtest/results
func (h *ResultsHandler) ListResults(c *gin.Context) {
	results, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ResultsResponse{Results: results})
}

// GetResult handles GET /api/v1/backtest/results/:id
func (h *ResultsHandler) GetResult(c *gin.Context) {
	id := resultID(c)
	if id == "" {
		badRequest(c, "Backtest ID is required")
		return
	}
	result, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteResult handles DELETE /api/v1/backtest/results/:id and
// DELETE /api/v1/backtest/results?id=...
func (h *ResultsHandler) DeleteResult(c *gin.Context) {
	id := resultID(c)
	if id == "" {
		badRequest(c, "Backtest ID is required")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Success: true, Message: "Backtest result deleted"})
}

func resultID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("id"))
}
