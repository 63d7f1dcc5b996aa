package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-trader/internal/api/models"
	"paper-trader/internal/backtest"
	"paper-trader/internal/bot"
	"paper-trader/internal/data"
	"paper-trader/internal/store"
)

func abortWithError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func badRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", message, nil)
}

// respondError maps a domain error onto the HTTP error envelope. Messages of
// typed errors are surfaced verbatim.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		verr *backtest.ValidationError
		ierr *backtest.InsufficientDataError
		uerr *data.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", verr.Message,
			map[string]interface{}{"field": verr.Field})
	case errors.As(err, &ierr):
		abortWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", ierr.Error(),
			map[string]interface{}{"symbol": ierr.Symbol, "required": ierr.Need, "available": ierr.Have})
	case errors.As(err, &uerr):
		respondUpstream(c, uerr)
	case errors.Is(err, store.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Backtest result not found", nil)
	case errors.Is(err, store.ErrInvalidID):
		badRequest(c, "Backtest ID must be a UUID")
	case errors.Is(err, bot.ErrInvalidAction):
		badRequest(c, "Invalid action. Must be start, pause, or stop")
	case errors.Is(err, bot.ErrNoSymbols):
		badRequest(c, "At least one symbol is required")
	case errors.Is(err, bot.ErrInvalidSelection):
		badRequest(c, "Invalid strategy selection format")
	case errors.Is(err, bot.ErrServerless):
		abortWithError(c, http.StatusBadRequest, "SERVERLESS",
			"Bot control is only available in local development environment. The bot runs on your local machine, not on Vercel.", nil)
	case errors.Is(err, bot.ErrCatalogNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND",
			"Strategies catalog not found. Export it from the bot into the data directory as strategies.json", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, "TIMEOUT", "Request canceled or timed out", nil)
	default:
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), nil)
	}
}

func respondUpstream(c *gin.Context, uerr *data.UpstreamError) {
	details := map[string]interface{}{
		"status_code":   uerr.StatusCode,
		"upstream_code": uerr.Code,
	}
	switch uerr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", uerr.Message, details)
	case http.StatusTooManyRequests:
		details["retry_after"] = uerr.RetryAfter
		abortWithError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", uerr.Message, details)
	default:
		abortWithError(c, http.StatusBadGateway, "UPSTREAM_ERROR", uerr.Message, details)
	}
}
