package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/backtest"
	"paper-trader/internal/model"
)

func barsOf(closes ...float64) []model.Bar {
	t0 := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = model.Bar{Time: t0.AddDate(0, 0, i), Close: c}
	}
	return out
}

func TestComputePotential(t *testing.T) {
	t.Parallel()
	p := ComputePotential("AAPL", barsOf(100, 110, 99, 120))

	assert.Equal(t, "AAPL", p.Symbol)
	assert.Equal(t, 4, p.Count)
	assert.Equal(t, 99.0, p.MinClose)
	assert.Equal(t, 120.0, p.MaxClose)
	assert.InDelta(t, 107.25, p.MeanClose, 1e-12)
	assert.InDelta(t, 20.0, p.BuyHoldReturnPct, 1e-12)
	// up moves: 100->110 (x1.1) and 99->120 (x120/99)
	assert.InDelta(t, (1.1*120/99-1)*100, p.OracleReturnPct, 1e-9)
	assert.GreaterOrEqual(t, p.OracleReturnPct, p.BuyHoldReturnPct)
	assert.Positive(t, p.Volatility)
}

func TestComputePotentialEmptyAndFlat(t *testing.T) {
	t.Parallel()
	assert.Zero(t, ComputePotential("X", nil).Count)

	flat := ComputePotential("X", barsOf(50, 50, 50))
	assert.Zero(t, flat.OracleReturnPct)
	assert.Zero(t, flat.BuyHoldReturnPct)
	assert.Zero(t, flat.Volatility)
}

func TestPercentileSorted(t *testing.T) {
	t.Parallel()
	vals := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentileSorted(vals, 0))
	assert.Equal(t, 5.0, percentileSorted(vals, 1))
	assert.Equal(t, 3.0, percentileSorted(vals, 0.5))
	assert.InDelta(t, 1.2, percentileSorted(vals, 0.05), 1e-12)
}

func TestRankByOracleReturn(t *testing.T) {
	t.Parallel()
	ranked := RankByOracleReturn(map[string][]model.Bar{
		"FLAT": barsOf(10, 10, 10),
		"UP":   barsOf(10, 11, 12),
		"SAW":  barsOf(10, 12, 10, 12),
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"SAW", "UP", "FLAT"},
		[]string{ranked[0].Symbol, ranked[1].Symbol, ranked[2].Symbol})
}

func TestRankRuns(t *testing.T) {
	t.Parallel()
	mk := func(id string, ret float64) *backtest.Result {
		return &backtest.Result{ID: id, Metrics: backtest.Metrics{TotalReturn: ret}}
	}
	ranked := RankRuns([]*backtest.Result{mk("a", 10), nil, mk("b", 50), mk("c", -5), mk("d", 10)})
	require.Len(t, ranked, 4)
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Result.ID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)
}
