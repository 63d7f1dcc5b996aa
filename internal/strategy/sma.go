package strategy

import (
	"fmt"
	"strings"

	"paper-trader/internal/model"
)

// NameSMACrossover is the only strategy the backtester runs today.
const NameSMACrossover = "SMACrossover"

// SMACrossoverParams configures the two moving-average windows (in bars).
type SMACrossoverParams struct {
	ShortWindow int
	LongWindow  int
}

func (p SMACrossoverParams) Validate() error {
	if p.ShortWindow < 2 {
		return fmt.Errorf("short_window must be >= 2, got %d", p.ShortWindow)
	}
	if p.LongWindow <= p.ShortWindow {
		return fmt.Errorf("long_window (%d) must be greater than short_window (%d)", p.LongWindow, p.ShortWindow)
	}
	return nil
}

// SMACrossover signals buy while the short SMA is above the long SMA and sell
// while it is below. Both averages end at the bar before the one being traded.
type SMACrossover struct {
	Params SMACrossoverParams
}

func NewSMACrossover(p SMACrossoverParams) (*SMACrossover, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &SMACrossover{Params: p}, nil
}

func (s *SMACrossover) Name() string { return NameSMACrossover }

func (s *SMACrossover) Warmup() int { return s.Params.LongWindow }

func (s *SMACrossover) Decide(ctx Context) Signal {
	if ctx.Index < s.Params.LongWindow || ctx.Index > len(ctx.Bars) {
		return SignalHold
	}
	short := SMA(ctx.Bars, ctx.Index, s.Params.ShortWindow)
	long := SMA(ctx.Bars, ctx.Index, s.Params.LongWindow)
	switch {
	case short > long:
		return SignalBuy
	case short < long:
		return SignalSell
	default:
		return SignalHold
	}
}

// SMA is the mean close of bars[end-n:end]. It returns 0 when the window does
// not fit inside the series.
func SMA(bars []model.Bar, end, n int) float64 {
	if n <= 0 || end < n || end > len(bars) {
		return 0
	}
	sum := 0.0
	for _, b := range bars[end-n : end] {
		sum += b.Close
	}
	return sum / float64(n)
}

// New builds a strategy by name. An empty name selects SMACrossover.
func New(name string, p SMACrossoverParams) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "smacrossover", "sma_crossover", "sma":
		return NewSMACrossover(p)
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}
