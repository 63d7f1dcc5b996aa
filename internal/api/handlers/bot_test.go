package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/api/models"
	"paper-trader/internal/bot"
	"paper-trader/internal/logging"
)

var fixedNow = time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

func newBotRouter(t *testing.T, dir string, serverless bool) *gin.Engine {
	t.Helper()
	ctrl := bot.NewController(dir, serverless, logging.Discard(), bot.WithClock(func() time.Time { return fixedNow }))
	bh := NewBotHandler(ctrl)
	sh := NewStrategyHandler(bot.NewCatalog(dir, serverless))
	ph := NewPortfolioHandler(bot.NewPortfolio(dir))

	r := gin.New()
	r.GET("/bot/status", bh.Status)
	r.POST("/bot/control", bh.Control)
	r.POST("/bot/symbols", bh.UpdateSymbols)
	r.GET("/strategies", sh.ListStrategies)
	r.GET("/strategies/selection", sh.GetSelection)
	r.POST("/strategies/selection", sh.SaveSelection)
	r.GET("/trades", ph.Trades)
	r.GET("/positions", ph.Positions)
	r.GET("/performance", ph.Performance)
	return r
}

func TestBotStatusAndControl(t *testing.T) {
	t.Parallel()
	r := newBotRouter(t, t.TempDir(), false)

	w := doJSON(t, r, http.MethodGet, "/bot/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st bot.ControlState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, bot.StatusStopped, st.Status)
	assert.Equal(t, bot.DefaultSymbols, st.Symbols)

	w = doJSON(t, r, http.MethodPost, "/bot/control", models.ControlRequest{Action: "start"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.ControlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, bot.StatusRunning, resp.State.Status)
	assert.Equal(t, "Bot started successfully", resp.Message)

	w = doJSON(t, r, http.MethodPost, "/bot/control", models.ControlRequest{Action: "Pause"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bot.StatusPaused, resp.State.Status)

	w = doJSON(t, r, http.MethodGet, "/bot/status", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, bot.StatusPaused, st.Status)
}

func TestBotControlRejectsUnknownAction(t *testing.T) {
	t.Parallel()
	r := newBotRouter(t, t.TempDir(), false)

	w := doJSON(t, r, http.MethodPost, "/bot/control", models.ControlRequest{Action: "restart"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "INVALID_REQUEST", detail.Code)
	assert.Equal(t, "Invalid action. Must be start, pause, or stop", detail.Message)
}

func TestBotServerless(t *testing.T) {
	t.Parallel()
	r := newBotRouter(t, t.TempDir(), true)

	w := doJSON(t, r, http.MethodGet, "/bot/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st bot.ControlState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.IsServerless)
	require.NotNil(t, st.Error)

	w = doJSON(t, r, http.MethodPost, "/bot/control", models.ControlRequest{Action: "start"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SERVERLESS", decodeError(t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/bot/symbols", models.SymbolsRequest{Symbols: []string{"AAPL"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SERVERLESS", decodeError(t, w).Code)
}

func TestBotUpdateSymbols(t *testing.T) {
	t.Parallel()
	r := newBotRouter(t, t.TempDir(), false)

	w := doJSON(t, r, http.MethodPost, "/bot/symbols", models.SymbolsRequest{Symbols: []string{" nvda", "AMD", "nvda"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SymbolsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"NVDA", "AMD"}, resp.Symbols)
	assert.True(t, resp.LastUpdated.Equal(fixedNow))

	w = doJSON(t, r, http.MethodPost, "/bot/symbols", models.SymbolsRequest{Symbols: []string{" "}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At least one symbol is required", decodeError(t, w).Message)

	w = doJSON(t, r, http.MethodPost, "/bot/symbols", map[string]any{"symbols": "AAPL"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Symbols must be an array", decodeError(t, w).Message)

	w = doJSON(t, r, http.MethodPost, "/bot/symbols", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Symbols must be an array", decodeError(t, w).Message)
}

func TestStrategiesCatalog(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := newBotRouter(t, dir, false)

	w := doJSON(t, r, http.MethodGet, "/strategies", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)

	catalog := `{"strategies":[{"name":"momentum","enabled":true}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strategies.json"), []byte(catalog), 0o644))

	w = doJSON(t, r, http.MethodGet, "/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, catalog, w.Body.String())
}

func TestStrategySelection(t *testing.T) {
	t.Parallel()
	r := newBotRouter(t, t.TempDir(), false)

	w := doJSON(t, r, http.MethodGet, "/strategies/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sel bot.Selection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sel))
	assert.Empty(t, sel.SelectedStrategies)

	w = doJSON(t, r, http.MethodPost, "/strategies/selection", map[string]any{
		"selected_strategies": map[string]any{"momentum": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved models.SelectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	assert.Equal(t, true, saved.SelectedStrategies["momentum"])

	w = doJSON(t, r, http.MethodGet, "/strategies/selection", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sel))
	assert.Equal(t, true, sel.SelectedStrategies["momentum"])

	w = doJSON(t, r, http.MethodPost, "/strategies/selection", map[string]any{"selected_strategies": []string{"momentum"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid strategy selection format", decodeError(t, w).Message)
}

func TestPortfolioPassThrough(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := newBotRouter(t, dir, false)

	w := doJSON(t, r, http.MethodGet, "/trades", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trades":[]}`, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	positions := `{"positions":[{"symbol":"AAPL","qty":3}],"account":{"cash":1000}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "positions.json"), []byte(positions), 0o644))
	w = doJSON(t, r, http.MethodGet, "/positions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, positions, w.Body.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "performance.json"), []byte("{oops"), 0o644))
	w = doJSON(t, r, http.MethodGet, "/performance", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"metrics":{},"daily_pnl":[],"error":"Failed to read performance"}`, w.Body.String())
}
