package models

import "paper-trader/internal/backtest"

// BacktestRequest is the body of POST /api/v1/backtest/run.
type BacktestRequest struct {
	Symbols        []string `json:"symbols"`
	StartDate      string   `json:"start_date"` // YYYY-MM-DD
	EndDate        string   `json:"end_date"`   // YYYY-MM-DD
	InitialCapital float64  `json:"initial_capital"`
	Strategy       string   `json:"strategy"`
	ShortWindow    int      `json:"short_window"`
	LongWindow     int      `json:"long_window"`
}

func (r BacktestRequest) ToConfig() backtest.Config {
	return backtest.Config{
		Symbols:        r.Symbols,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		InitialCapital: r.InitialCapital,
		Strategy:       r.Strategy,
		ShortWindow:    r.ShortWindow,
		LongWindow:     r.LongWindow,
	}
}

// CompareBacktestRequest runs several window variations over one bar fetch.
type CompareBacktestRequest struct {
	BaseConfig BacktestRequest     `json:"base_config"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1,max=50"`
}

// BacktestVariation overrides non-zero fields of the base config.
type BacktestVariation struct {
	Name           string  `json:"name" binding:"required"`
	ShortWindow    int     `json:"short_window,omitempty"`
	LongWindow     int     `json:"long_window,omitempty"`
	InitialCapital float64 `json:"initial_capital,omitempty"`
}

// Apply overlays v onto base.
func (v BacktestVariation) Apply(base backtest.Config) backtest.Config {
	out := base
	if v.ShortWindow != 0 {
		out.ShortWindow = v.ShortWindow
	}
	if v.LongWindow != 0 {
		out.LongWindow = v.LongWindow
	}
	if v.InitialCapital != 0 {
		out.InitialCapital = v.InitialCapital
	}
	return out
}

// RankRequest is the query of GET /api/v1/rank.
type RankRequest struct {
	Symbols   string `form:"symbols" binding:"required"` // comma-separated
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
	Limit     int    `form:"limit,omitempty"` // default: 10
}

type ControlRequest struct {
	Action string `json:"action"`
}

type SymbolsRequest struct {
	Symbols []string `json:"symbols"`
}

type SelectionRequest struct {
	SelectedStrategies map[string]any `json:"selected_strategies"`
}

// BarsQuery is the query of GET /api/v1/market-data/bars.
type BarsQuery struct {
	Symbol    string `form:"symbol"`
	Timeframe string `form:"timeframe"` // default: 1Min
	Limit     int    `form:"limit"`     // default: 100
	Days      int    `form:"days"`      // lookback, default: 5
}

// SymbolsQuery filters GET /api/v1/symbols.
type SymbolsQuery struct {
	Category string `form:"category"`
	Query    string `form:"q"`
	Popular  bool   `form:"popular"`
}
