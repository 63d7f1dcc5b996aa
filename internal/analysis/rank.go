package analysis

import (
	"sort"

	"paper-trader/internal/backtest"
	"paper-trader/internal/model"
)

type RankedPotential struct {
	SymbolPotential
}

// RankByOracleReturn computes potentials per symbol and sorts descending by
// OracleReturnPct, ties broken by symbol.
func RankByOracleReturn(bySymbol map[string][]model.Bar) []RankedPotential {
	out := make([]RankedPotential, 0, len(bySymbol))
	for sym, bars := range bySymbol {
		p := ComputePotential(sym, bars)
		out = append(out, RankedPotential{SymbolPotential: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OracleReturnPct != out[j].OracleReturnPct {
			return out[i].OracleReturnPct > out[j].OracleReturnPct
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// RankedRun is one entry of a parameter comparison.
type RankedRun struct {
	Rank   int
	Result *backtest.Result
}

// RankRuns orders backtest results by total return, best first. Equal returns
// keep their input order.
func RankRuns(results []*backtest.Result) []RankedRun {
	sorted := make([]*backtest.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.TotalReturn > sorted[j].Metrics.TotalReturn
	})
	out := make([]RankedRun, len(sorted))
	for i, r := range sorted {
		out[i] = RankedRun{Rank: i + 1, Result: r}
	}
	return out
}
