package strategy

import "paper-trader/internal/model"

// Context is what a strategy sees at bar Index. Bars holds the full series;
// a strategy must only read bars before Index when computing its signal.
type Context struct {
	Index int
	Bars  []model.Bar
}

// Signal is a strategy's view of the market for one bar.
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "hold"
	}
}

type Strategy interface {
	Name() string
	// Warmup is the number of leading bars that cannot produce a signal.
	Warmup() int
	Decide(ctx Context) Signal
}
