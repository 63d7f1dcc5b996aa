package analysis

import (
	"math"
	"sort"
	"time"

	"paper-trader/internal/model"
)

// SymbolPotential summarizes a daily bar series for ranking. It does not
// depend on any strategy: it holds raw close stats, the buy-and-hold return
// and an "oracle" return that captures every up move and sits out every down move.
type SymbolPotential struct {
	Symbol string

	Start time.Time
	End   time.Time

	Count int

	MinClose  float64
	MaxClose  float64
	MeanClose float64
	P05Close  float64
	P95Close  float64

	// Volatility is the population stddev of daily close-to-close returns, in percent.
	Volatility float64

	BuyHoldReturnPct float64

	// OracleReturnPct compounds every positive close-to-close move:
	// - long only, whole capital, no costs
	// - trades at closes, perfect foresight of the next close
	// It is an upper bound for any long-only daily strategy on the series.
	OracleReturnPct float64
}

func ComputePotential(symbol string, bars []model.Bar) SymbolPotential {
	p := SymbolPotential{Symbol: symbol}
	if len(bars) == 0 {
		return p
	}
	p.Count = len(bars)
	p.Start = bars[0].Time
	p.End = bars[len(bars)-1].Time

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(bars))
	for _, b := range bars {
		v := b.Close
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	p.MinClose = minv
	p.MaxClose = maxv
	p.MeanClose = sum / float64(len(vals))
	p.P05Close = percentileSorted(vals, 0.05)
	p.P95Close = percentileSorted(vals, 0.95)

	first, last := bars[0].Close, bars[len(bars)-1].Close
	if first > 0 {
		p.BuyHoldReturnPct = (last - first) / first * 100
	}
	p.Volatility = returnStdPct(bars)
	p.OracleReturnPct = oracleReturnPct(bars)
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func oracleReturnPct(bars []model.Bar) float64 {
	growth := 1.0
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev > 0 && cur > prev {
			growth *= cur / prev
		}
	}
	return (growth - 1) * 100
}

func returnStdPct(bars []model.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if prev := bars[i-1].Close; prev > 0 {
			rets = append(rets, (bars[i].Close-prev)/prev)
		}
	}
	if len(rets) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	ss := 0.0
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss/float64(len(rets))) * 100
}
