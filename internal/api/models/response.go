package models

import (
	"time"

	"paper-trader/internal/backtest"
	"paper-trader/internal/bot"
	"paper-trader/internal/data"
	"paper-trader/internal/model"
)

// ResultsResponse lists stored backtests, newest first.
type ResultsResponse struct {
	Results []*backtest.Result `json:"results"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Symbol     string             `json:"symbol"`
	Bars       int                `json:"bars"`
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation. Failed variations
// carry Error and are ranked after every successful one.
type ComparisonResult struct {
	Rank        int              `json:"rank,omitempty"`
	Name        string           `json:"name"`
	ShortWindow int              `json:"short_window"`
	LongWindow  int              `json:"long_window"`
	Metrics     backtest.Metrics `json:"metrics"`
	Error       string           `json:"error,omitempty"`
}

// RankResponse represents the response from ranking symbols
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked symbol
type Ranking struct {
	Rank             int     `json:"rank"`
	Symbol           string  `json:"symbol"`
	Count            int     `json:"count"`
	MinClose         float64 `json:"min_close"`
	MaxClose         float64 `json:"max_close"`
	P05Close         float64 `json:"p05_close"`
	P95Close         float64 `json:"p95_close"`
	Volatility       float64 `json:"volatility"`
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct"`
	OracleReturnPct  float64 `json:"oracle_return_pct"`
}

// StrategyInfo represents information about a built-in backtest strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

type ControlResponse struct {
	Success bool             `json:"success"`
	State   bot.ControlState `json:"state"`
	Message string           `json:"message"`
}

type SymbolsResponse struct {
	Success     bool      `json:"success"`
	Symbols     []string  `json:"symbols"`
	LastUpdated time.Time `json:"last_updated"`
}

type SelectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	bot.Selection
}

// BarPoint is the dashboard chart shape of a bar.
type BarPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

type BarsResponse struct {
	Symbol string     `json:"symbol"`
	Bars   []BarPoint `json:"bars"`
}

type QuoteResponse struct {
	Quote *model.Quote `json:"quote"`
}

// MarketStatusResponse is served even when the clock cannot be fetched.
type MarketStatusResponse struct {
	IsOpen    bool       `json:"is_open"`
	NextOpen  *time.Time `json:"next_open,omitempty"`
	NextClose *time.Time `json:"next_close,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

type AccountResponse struct {
	Account   *model.Account   `json:"account"`
	Positions []model.Position `json:"positions"`
}

type SymbolListResponse struct {
	Symbols    []data.SymbolInfo `json:"symbols"`
	Categories map[string]string `json:"categories"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
