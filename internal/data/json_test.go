package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/model"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 5, 0, 0, 0, time.UTC) }

func TestBarsFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bars", "AAPL.json")
	token := "ignored"
	in := &model.BarsResponse{
		Symbol:        "AAPL",
		NextPageToken: &token,
		Bars: []model.Bar{
			{Time: day(3), Close: 184.25},
			{Time: day(2), Close: 185.64},
		},
	}
	require.NoError(t, SaveBarsJSON(in, path))

	out, err := LoadBarsJSON(path)
	require.NoError(t, err)
	assert.Nil(t, out.NextPageToken)
	require.Len(t, out.Bars, 2)
	assert.Equal(t, "2024-01-02", out.Bars[0].Date(), "bars are sorted on load")
	assert.NotNil(t, in.NextPageToken, "caller's response is not modified")
}

func TestFileBarSource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "msft.json")
	resp := &model.BarsResponse{Symbol: "MSFT"}
	for d := 1; d <= 10; d++ {
		resp.Bars = append(resp.Bars, model.Bar{Time: day(d), Close: float64(d)})
	}
	require.NoError(t, SaveBarsJSON(resp, path))

	src, err := NewFileBarSource(path)
	require.NoError(t, err)

	bars, err := src.DailyBars(context.Background(), "msft",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5, 6}, model.Closes(bars))

	_, err = src.DailyBars(context.Background(), "AAPL", day(1), day(10))
	assert.Error(t, err)
}

func TestLoadBarsJSONMissing(t *testing.T) {
	t.Parallel()
	_, err := LoadBarsJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
