package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/model"
)

type fakeSource struct {
	bars    []model.Bar
	err     error
	calls   int
	symbols []string
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]model.Bar, error) {
	f.calls++
	f.symbols = append(f.symbols, symbol)
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func mkBars(closes []float64) []model.Bar {
	t0 := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = model.Bar{Time: t0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func constCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testConfig(short, long int, capital float64) Config {
	return Config{
		Symbols:        []string{"AAPL"},
		StartDate:      "2024-01-01",
		EndDate:        "2024-06-30",
		InitialCapital: capital,
		ShortWindow:    short,
		LongWindow:     long,
	}
}

func newTestEngine(src BarSource) *Engine {
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	return New(src, nil,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "6f1c1b43-8c4e-4c55-9a8e-3c7b1f0f2a10" }),
	)
}

func TestRunFlatSeriesProducesNoTrades(t *testing.T) {
	t.Parallel()
	src := &fakeSource{bars: mkBars(constCloses(60, 100))}
	res, err := newTestEngine(src).Run(context.Background(), testConfig(5, 20, 10000))
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	require.Len(t, res.EquityCurve, 40)
	for _, p := range res.EquityCurve {
		assert.Equal(t, 10000.0, p.Value)
	}
	assert.Zero(t, res.Metrics.TotalReturn)
	assert.Zero(t, res.Metrics.TotalReturnPct)
	assert.Zero(t, res.Metrics.WinRate)
	assert.Zero(t, res.Metrics.MaxDrawdown)
	assert.Zero(t, res.Metrics.SharpeRatio)
	assert.Equal(t, 10000.0, res.Metrics.FinalValue)
	assert.Equal(t, "6f1c1b43-8c4e-4c55-9a8e-3c7b1f0f2a10", res.ID)
	assert.Equal(t, 1, src.calls)
}

func TestRunRisingSeriesBuysOnceAndForceCloses(t *testing.T) {
	t.Parallel()
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 90 + 20*float64(i)/29
	}
	bars := mkBars(closes)
	res, err := newTestEngine(&fakeSource{bars: bars}).Run(context.Background(), testConfig(5, 10, 10000))
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]

	assert.Equal(t, model.SideBuy, buy.Side)
	assert.Equal(t, bars[10].Date(), buy.Date, "first bar after warmup already has short SMA above long SMA")
	assert.Equal(t, closes[10], buy.Price)
	assert.Equal(t, int64(math.Floor(10000/closes[10])), buy.Qty)
	assert.Nil(t, buy.PnL)

	assert.Equal(t, model.SideSell, sell.Side)
	assert.Equal(t, bars[29].Date(), sell.Date)
	assert.Equal(t, closes[29], sell.Price)
	assert.Equal(t, buy.Qty, sell.Qty)
	require.NotNil(t, sell.PnL)
	assert.Positive(t, *sell.PnL)

	assert.Len(t, res.EquityCurve, 20)
	assert.Positive(t, res.Metrics.TotalReturn)
	assert.Equal(t, 1, res.Metrics.TotalTrades)
	assert.Equal(t, 1, res.Metrics.WinningTrades)
	assert.Equal(t, 100.0, res.Metrics.WinRate)
	assert.Zero(t, res.Metrics.MaxDrawdown)
}

func TestRunInsufficientData(t *testing.T) {
	t.Parallel()
	src := &fakeSource{bars: mkBars(constCloses(15, 100))}
	res, err := newTestEngine(src).Run(context.Background(), testConfig(5, 20, 10000))
	require.Error(t, err)
	assert.Nil(t, res)

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 20, insufficient.Need)
	assert.Equal(t, 15, insufficient.Have)
	assert.Equal(t, "AAPL", insufficient.Symbol)
}

func TestRunExactlyLongWindowBars(t *testing.T) {
	t.Parallel()
	res, err := newTestEngine(&fakeSource{bars: mkBars(constCloses(20, 100))}).
		Run(context.Background(), testConfig(5, 20, 10000))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.EquityCurve)
	assert.Equal(t, 10000.0, res.Metrics.FinalValue)
	assert.Zero(t, res.Metrics.SharpeRatio)
}

func TestRunUpstreamErrorIsWrapped(t *testing.T) {
	t.Parallel()
	upstream := errors.New("bars endpoint returned 500")
	_, err := newTestEngine(&fakeSource{err: upstream}).Run(context.Background(), testConfig(5, 20, 10000))
	require.ErrorIs(t, err, upstream)
}

func TestRunValidationHappensBeforeFetch(t *testing.T) {
	t.Parallel()
	cases := map[string]func(*Config){
		"no symbols":       func(c *Config) { c.Symbols = nil },
		"blank symbol":     func(c *Config) { c.Symbols = []string{"  "} },
		"missing start":    func(c *Config) { c.StartDate = "" },
		"missing end":      func(c *Config) { c.EndDate = "" },
		"bad date":         func(c *Config) { c.StartDate = "01/02/2024" },
		"reversed dates":   func(c *Config) { c.StartDate, c.EndDate = c.EndDate, c.StartDate },
		"zero capital":     func(c *Config) { c.InitialCapital = 0 },
		"short too small":  func(c *Config) { c.ShortWindow = 1 },
		"long not > short": func(c *Config) { c.LongWindow = c.ShortWindow },
		"unknown strategy": func(c *Config) { c.Strategy = "martingale" },
	}
	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(5, 20, 10000)
			mutate(&cfg)
			src := &fakeSource{bars: mkBars(constCloses(60, 100))}
			_, err := newTestEngine(src).Run(context.Background(), cfg)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Zero(t, src.calls)
		})
	}
}

func TestDateRangeReportsEmptyField(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		mutate func(*Config)
		field  string
	}{
		"missing start": {func(c *Config) { c.StartDate = "" }, "start_date"},
		"missing end":   {func(c *Config) { c.EndDate = " " }, "end_date"},
		"bad end":       {func(c *Config) { c.EndDate = "2024/02/01" }, "end_date"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(5, 20, 10000)
			tc.mutate(&cfg)
			_, _, err := cfg.DateRange()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestRunUsesFirstSymbolOnly(t *testing.T) {
	t.Parallel()
	src := &fakeSource{bars: mkBars(constCloses(30, 50))}
	cfg := testConfig(5, 20, 10000)
	cfg.Symbols = []string{" msft", "AAPL", "TSLA"}

	res, err := newTestEngine(src).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, src.symbols)
	assert.Equal(t, cfg, res.Config)
}

func oscillating(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 15*math.Sin(float64(i)/4) + 0.05*float64(i)
	}
	return out
}

func TestSimulateInvariants(t *testing.T) {
	t.Parallel()
	const capital = 25000.0
	bars := mkBars(oscillating(250))
	res, err := newTestEngine(nil).Simulate(testConfig(3, 8, capital), bars)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	// Trades alternate buy/sell: never a second open position.
	open := false
	var entry Trade
	cash := capital
	for i, tr := range res.Trades {
		switch tr.Side {
		case model.SideBuy:
			require.False(t, open, "trade %d opens a second position", i)
			open = true
			entry = tr
			cash -= float64(tr.Qty) * tr.Price
		case model.SideSell:
			require.True(t, open, "trade %d sells with no open position", i)
			require.NotNil(t, tr.PnL)
			assert.Equal(t, entry.Qty, tr.Qty)
			want := float64(tr.Qty)*tr.Price - float64(tr.Qty)*entry.Price
			assert.Equal(t, want, *tr.PnL, "trade %d", i)
			open = false
			cash += float64(tr.Qty) * tr.Price
		}
	}
	assert.False(t, open, "run must end fully liquidated")
	assert.Equal(t, cash, res.Metrics.FinalValue)
	assert.Equal(t, res.Metrics.FinalValue-capital, res.Metrics.TotalReturn)

	assert.GreaterOrEqual(t, res.Metrics.WinRate, 0.0)
	assert.LessOrEqual(t, res.Metrics.WinRate, 100.0)
	assert.GreaterOrEqual(t, res.Metrics.MaxDrawdown, 0.0)
	assert.Equal(t, res.Metrics.TotalTrades, res.Metrics.WinningTrades+res.Metrics.LosingTrades)
	assert.Len(t, res.EquityCurve, len(bars)-8)
}

func TestSimulateSkipsUnaffordableEntry(t *testing.T) {
	t.Parallel()
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 500 + float64(i)
	}
	res, err := newTestEngine(nil).Simulate(testConfig(2, 5, 100), mkBars(closes))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 100.0, res.Metrics.FinalValue)
}

func TestConfigWithDefaults(t *testing.T) {
	t.Parallel()
	d := Defaults{InitialCapital: 100000, ShortWindow: 10, LongWindow: 50}
	got := Config{Symbols: []string{"AAPL"}, ShortWindow: 3}.WithDefaults(d)
	assert.Equal(t, 100000.0, got.InitialCapital)
	assert.Equal(t, 3, got.ShortWindow)
	assert.Equal(t, 50, got.LongWindow)
	assert.Equal(t, "SMACrossover", got.Strategy)
}
