package backtest

import (
	"math"

	"paper-trader/internal/model"
)

// TradingDaysPerYear annualizes daily Sharpe ratios.
const TradingDaysPerYear = 252

// ComputeMetrics derives every summary field from the trade and equity histories.
// finalCash must be the cash balance after all positions were liquidated.
func ComputeMetrics(initialCapital, finalCash float64, trades []Trade, curve []EquityPoint) Metrics {
	m := Metrics{
		TotalReturn: finalCash - initialCapital,
		FinalValue:  finalCash,
	}
	if initialCapital != 0 {
		m.TotalReturnPct = m.TotalReturn / initialCapital * 100
	}

	for _, t := range trades {
		if t.Side != model.SideSell {
			continue
		}
		m.TotalTrades++
		switch pnl := t.RealizedPnL(); {
		case pnl > 0:
			m.WinningTrades++
		case pnl < 0:
			m.LosingTrades++
		}
	}
	m.WinRate = WinRate(m.WinningTrades, m.TotalTrades)

	values := EquityValues(curve)
	m.MaxDrawdown = MaxDrawdown(values)
	m.SharpeRatio = SharpeRatio(DailyReturns(values))
	return m
}

// WinRate is wins/total as a percentage, 0 when total is 0.
func WinRate(wins, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

func EquityValues(curve []EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Value
	}
	return out
}

// MaxDrawdown is the largest percentage decline from a running peak.
// The peak starts at the first value, so a non-decreasing curve yields 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// DailyReturns are the point-over-point fractional changes. The first point has
// no predecessor and contributes a return of 0, as does any zero-valued predecessor.
func DailyReturns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		if prev := values[i-1]; prev != 0 {
			out[i] = (values[i] - prev) / prev
		}
	}
	return out
}

// SharpeRatio annualizes mean/stddev (population) of daily returns with a zero
// risk-free rate. It is 0 when there are no returns or no variance.
func SharpeRatio(returns []float64) float64 {
	mean, std := meanStd(returns)
	if std <= 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

func meanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	ss := 0.0
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(x)))
}
