package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/backtest"
	"paper-trader/internal/model"
)

func sampleResult(created time.Time) *backtest.Result {
	pnl := 123.456789
	return &backtest.Result{
		ID: uuid.NewString(),
		Config: backtest.Config{
			Symbols:        []string{"AAPL"},
			StartDate:      "2024-01-01",
			EndDate:        "2024-06-30",
			InitialCapital: 100000,
			Strategy:       "SMACrossover",
			ShortWindow:    10,
			LongWindow:     50,
		},
		Metrics: backtest.Metrics{
			TotalReturn:    123.456789,
			TotalReturnPct: 0.123456789,
			TotalTrades:    1,
			WinningTrades:  1,
			WinRate:        100,
			MaxDrawdown:    1.0 / 3,
			SharpeRatio:    0.7071067811865476,
			FinalValue:     100123.456789,
		},
		Trades: []backtest.Trade{
			{Date: "2024-03-01", Symbol: "AAPL", Side: model.SideBuy, Price: 179.66, Qty: 556},
			{Date: "2024-04-01", Symbol: "AAPL", Side: model.SideSell, Price: 179.882043, Qty: 556, PnL: &pnl},
		},
		EquityCurve: []backtest.EquityPoint{
			{Date: "2024-03-01", Value: 100000},
			{Date: "2024-03-04", Value: 99876.0000001},
		},
		CreatedAt: created,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestResultStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewResultStore(t.TempDir(), nil)
	in := sampleResult(time.Date(2024, 7, 1, 9, 30, 0, 123456789, time.UTC))

	require.NoError(t, s.Create(ctx, in))
	out, err := s.Get(ctx, in.ID)
	require.NoError(t, err)

	assert.Equal(t, mustJSON(t, in.Trades), mustJSON(t, out.Trades))
	assert.Equal(t, mustJSON(t, in.EquityCurve), mustJSON(t, out.EquityCurve))
	assert.Equal(t, mustJSON(t, in.Metrics), mustJSON(t, out.Metrics))
	assert.Equal(t, in.Config, out.Config)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))

	_, err = os.Stat(filepath.Join(s.Dir(), "backtest_"+in.ID+".json"))
	assert.NoError(t, err)
}

func TestResultStoreGetMissing(t *testing.T) {
	t.Parallel()
	s := NewResultStore(t.TempDir(), nil)
	_, err := s.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultStoreNonUUIDIsNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	s := NewResultStore(dir, nil)
	outside := filepath.Join(filepath.Dir(dir), "passwd")
	for _, id := range []string{"", "../passwd", "abc123", "backtest_1"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound, id)
	}
	assert.NoFileExists(t, outside)
}

func TestResultStoreCreateRejectsInvalidID(t *testing.T) {
	t.Parallel()
	s := NewResultStore(t.TempDir(), nil)
	err := s.Create(context.Background(), &backtest.Result{ID: "../escape"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestResultStoreDeleteMissingLeavesOthers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewResultStore(t.TempDir(), nil)
	kept := sampleResult(time.Now().UTC())
	require.NoError(t, s.Create(ctx, kept))

	assert.ErrorIs(t, s.Delete(ctx, uuid.NewString()), ErrNotFound)

	got, err := s.Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.ID, got.ID)

	require.NoError(t, s.Delete(ctx, kept.ID))
	assert.ErrorIs(t, s.Delete(ctx, kept.ID), ErrNotFound)
}

func TestResultStoreListNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	s := NewResultStore(dir, nil)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	older := sampleResult(base)
	newest := sampleResult(base.Add(48 * time.Hour))
	middle := sampleResult(base.Add(24 * time.Hour))
	for _, r := range []*backtest.Result{older, newest, middle} {
		require.NoError(t, s.Create(ctx, r))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backtest_broken.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, newest.ID, list[0].ID)
	assert.Equal(t, middle.ID, list[1].ID)
	assert.Equal(t, older.ID, list[2].ID)
}

func TestResultStoreListMissingDir(t *testing.T) {
	t.Parallel()
	s := NewResultStore(filepath.Join(t.TempDir(), "nope"), nil)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResultStoreCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewResultStore(t.TempDir(), nil)
	assert.ErrorIs(t, s.Create(ctx, sampleResult(time.Now())), context.Canceled)
}

func TestWriteJSONReplacesAtomically(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	require.NoError(t, WriteJSON(path, map[string]int{"a": 2}))

	var got map[string]int
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, map[string]int{"a": 2}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestReadJSONMissing(t *testing.T) {
	t.Parallel()
	var v map[string]any
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
