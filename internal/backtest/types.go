package backtest

import (
	"strings"
	"time"

	"paper-trader/internal/model"
	"paper-trader/internal/strategy"
)

// Config is the request shape of a backtest run. Only the first symbol is
// simulated; the rest are accepted for compatibility and ignored.
type Config struct {
	Symbols        []string `json:"symbols"`
	StartDate      string   `json:"start_date"` // YYYY-MM-DD
	EndDate        string   `json:"end_date"`   // YYYY-MM-DD
	InitialCapital float64  `json:"initial_capital"`
	Strategy       string   `json:"strategy,omitempty"`
	ShortWindow    int      `json:"short_window"`
	LongWindow     int      `json:"long_window"`
}

// Defaults fill zero-valued numeric fields of a Config.
type Defaults struct {
	InitialCapital float64
	ShortWindow    int
	LongWindow     int
}

// WithDefaults returns a copy of c with zero numeric fields taken from d.
func (c Config) WithDefaults(d Defaults) Config {
	out := c
	if out.InitialCapital == 0 {
		out.InitialCapital = d.InitialCapital
	}
	if out.ShortWindow == 0 {
		out.ShortWindow = d.ShortWindow
	}
	if out.LongWindow == 0 {
		out.LongWindow = d.LongWindow
	}
	if out.Strategy == "" {
		out.Strategy = strategy.NameSMACrossover
	}
	return out
}

// Symbol is the ticker that gets simulated.
func (c Config) Symbol() string {
	for _, s := range c.Symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			return s
		}
	}
	return ""
}

// DateRange parses StartDate and EndDate.
func (c Config) DateRange() (time.Time, time.Time, error) {
	if strings.TrimSpace(c.StartDate) == "" {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Message: "Start date and end date are required"}
	}
	if strings.TrimSpace(c.EndDate) == "" {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Message: "Start date and end date are required"}
	}
	start, err := time.Parse(model.DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"}
	}
	end, err := time.Parse(model.DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Message: "start_date must not be after end_date"}
	}
	return start, end, nil
}

// Validate rejects configs that cannot be run. It never touches the network.
func (c Config) Validate() error {
	if c.Symbol() == "" {
		return &ValidationError{Field: "symbols", Message: "At least one symbol is required"}
	}
	if _, _, err := c.DateRange(); err != nil {
		return err
	}
	if c.InitialCapital <= 0 {
		return &ValidationError{Field: "initial_capital", Message: "initial_capital must be > 0"}
	}
	if err := c.strategyParams().Validate(); err != nil {
		return &ValidationError{Field: "short_window", Message: err.Error()}
	}
	if _, err := strategy.New(c.Strategy, c.strategyParams()); err != nil {
		return &ValidationError{Field: "strategy", Message: err.Error()}
	}
	return nil
}

func (c Config) strategyParams() strategy.SMACrossoverParams {
	return strategy.SMACrossoverParams{ShortWindow: c.ShortWindow, LongWindow: c.LongWindow}
}

// Trade is one fill. PnL is set on sells only.
type Trade struct {
	Date   string     `json:"date"`
	Symbol string     `json:"symbol"`
	Side   model.Side `json:"side"`
	Price  float64    `json:"price"`
	Qty    int64      `json:"qty"`
	PnL    *float64   `json:"pnl,omitempty"`
}

// RealizedPnL is the trade's P&L, 0 for buys.
func (t Trade) RealizedPnL() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// EquityPoint is the mark-to-market portfolio value after one simulated bar.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Metrics struct {
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	FinalValue     float64 `json:"final_value"`
}

// Result is the immutable output of one run; it is persisted as a single unit.
type Result struct {
	ID          string        `json:"id"`
	Config      Config        `json:"config"`
	Metrics     Metrics       `json:"metrics"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	CreatedAt   time.Time     `json:"created_at"`
}
