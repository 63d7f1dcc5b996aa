package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/models"
	"paper-trader/internal/bot"
)

// BotController reads and changes the bot control file.
type BotController interface {
	Status(ctx context.Context) (bot.ControlState, error)
	Apply(ctx context.Context, action bot.Action) (bot.ControlState, string, error)
	SetSymbols(ctx context.Context, symbols []string) (bot.ControlState, error)
}

type BotHandler struct {
	ctrl BotController
}

func NewBotHandler(ctrl BotController) *BotHandler {
	return &BotHandler{ctrl: ctrl}
}

// Status handles GET /api/v1/bot/status
func (h *BotHandler) Status(c *gin.Context) {
	st, err := h.ctrl.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Control handles POST /api/v1/bot/control
func (h *BotHandler) Control(c *gin.Context) {
	var req models.ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	action, err := bot.ParseAction(req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	st, msg, err := h.ctrl.Apply(c.Request.Context(), action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ControlResponse{Success: true, State: st, Message: msg})
}

// UpdateSymbols handles POST /api/v1/bot/symbols
func (h *BotHandler) UpdateSymbols(c *gin.Context) {
	var req models.SymbolsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Symbols must be an array")
		return
	}
	if req.Symbols == nil {
		badRequest(c, "Symbols must be an array")
		return
	}
	st, err := h.ctrl.SetSymbols(c.Request.Context(), req.Symbols)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SymbolsResponse{Success: true, Symbols: st.Symbols, LastUpdated: st.LastUpdated})
}
