package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"paper-trader/internal/model"
	"paper-trader/internal/strategy"
)

// BarSource returns the ascending daily bar series for a symbol over [start, end].
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

type Engine struct {
	source BarSource
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Engine)

// WithClock overrides the timestamp source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides result id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(source BarSource, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		source: source,
		logger: logger.With("component", "backtest"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates cfg, fetches the bar series and simulates it.
// Fetch failures are returned wrapped; nothing is retried.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if e.source == nil {
		return nil, fmt.Errorf("bar source is nil")
	}
	start, end, _ := cfg.DateRange()
	symbol := cfg.Symbol()
	if len(cfg.Symbols) > 1 {
		e.logger.Warn("multiple symbols requested, only the first is simulated",
			"symbol", symbol, "ignored", cfg.Symbols[1:])
	}

	bars, err := e.source.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}
	return e.Simulate(cfg, bars)
}

// Simulate replays an already fetched series. bars must be in ascending date order.
func (e *Engine) Simulate(cfg Config, bars []model.Bar) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.New(cfg.Strategy, cfg.strategyParams())
	if err != nil {
		return nil, &ValidationError{Field: "strategy", Message: err.Error()}
	}
	symbol := cfg.Symbol()
	if len(bars) < strat.Warmup() {
		return nil, &InsufficientDataError{Symbol: symbol, Need: strat.Warmup(), Have: len(bars)}
	}

	sim := simulate(symbol, cfg.InitialCapital, strat, bars)
	res := &Result{
		ID:          e.newID(),
		Config:      cfg,
		Metrics:     ComputeMetrics(cfg.InitialCapital, sim.cash, sim.trades, sim.curve),
		Trades:      sim.trades,
		EquityCurve: sim.curve,
		CreatedAt:   e.now(),
	}
	e.logger.Info("backtest completed",
		"id", res.ID,
		"symbol", symbol,
		"bars", len(bars),
		"trades", len(res.Trades),
		"total_return_pct", res.Metrics.TotalReturnPct)
	return res, nil
}

// position is the single open holding of a run.
type position struct {
	qty      int64
	avgPrice float64
}

// close sells the whole position and returns the sell trade and its proceeds.
func (p *position) close(symbol, date string, price float64) (Trade, float64) {
	sellValue := float64(p.qty) * price
	pnl := sellValue - float64(p.qty)*p.avgPrice
	return Trade{
		Date:   date,
		Symbol: symbol,
		Side:   model.SideSell,
		Price:  price,
		Qty:    p.qty,
		PnL:    &pnl,
	}, sellValue
}

type simulation struct {
	cash   float64
	trades []Trade
	curve  []EquityPoint
}

func simulate(symbol string, capital float64, strat strategy.Strategy, bars []model.Bar) simulation {
	sim := simulation{
		cash:   capital,
		trades: []Trade{},
		curve:  make([]EquityPoint, 0, len(bars)),
	}
	var pos *position

	for i := strat.Warmup(); i < len(bars); i++ {
		bar := bars[i]
		price := bar.Close
		date := bar.Date()
		sig := strat.Decide(strategy.Context{Index: i, Bars: bars})

		// Entry is checked before exit; entry requires no open position,
		// so a position is never opened and closed on the same bar.
		if sig == strategy.SignalBuy && pos == nil && price > 0 && sim.cash >= price {
			qty := int64(math.Floor(sim.cash / price))
			if qty > 0 {
				sim.cash -= float64(qty) * price
				pos = &position{qty: qty, avgPrice: price}
				sim.trades = append(sim.trades, Trade{
					Date:   date,
					Symbol: symbol,
					Side:   model.SideBuy,
					Price:  price,
					Qty:    qty,
				})
			}
		}
		if sig == strategy.SignalSell && pos != nil {
			tr, proceeds := pos.close(symbol, date, price)
			sim.cash += proceeds
			sim.trades = append(sim.trades, tr)
			pos = nil
		}

		value := sim.cash
		if pos != nil {
			value += float64(pos.qty) * price
		}
		sim.curve = append(sim.curve, EquityPoint{Date: date, Value: value})
	}

	if pos != nil {
		last := bars[len(bars)-1]
		tr, proceeds := pos.close(symbol, last.Date(), last.Close)
		sim.cash += proceeds
		sim.trades = append(sim.trades, tr)
	}
	return sim
}
