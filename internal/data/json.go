package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"paper-trader/internal/model"
)

// LoadBarsJSON reads a file in the Alpaca bars response shape.
func LoadBarsJSON(path string) (*model.BarsResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bars file: %w", err)
	}
	var resp model.BarsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse bars file: %w", err)
	}
	sort.SliceStable(resp.Bars, func(i, j int) bool { return resp.Bars[i].Time.Before(resp.Bars[j].Time) })
	return &resp, nil
}

// SaveBarsJSON writes resp so LoadBarsJSON can read it back.
func SaveBarsJSON(resp *model.BarsResponse, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out := *resp
	out.NextPageToken = nil
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bars: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write bars file: %w", err)
	}
	return nil
}

// FileBarSource serves bars from a saved file, filtered to the requested range.
type FileBarSource struct {
	resp *model.BarsResponse
}

func NewFileBarSource(path string) (*FileBarSource, error) {
	resp, err := LoadBarsJSON(path)
	if err != nil {
		return nil, err
	}
	return &FileBarSource{resp: resp}, nil
}

// DailyBars returns bars whose date falls within [start, end]. A symbol
// mismatch is an error so a file is never used for the wrong ticker.
func (s *FileBarSource) DailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	if s.resp.Symbol != "" && !strings.EqualFold(s.resp.Symbol, symbol) {
		return nil, fmt.Errorf("bars file holds %s, not %s", s.resp.Symbol, symbol)
	}
	from := start.UTC().Format(model.DateLayout)
	to := end.UTC().Format(model.DateLayout)
	out := make([]model.Bar, 0, len(s.resp.Bars))
	for _, b := range s.resp.Bars {
		d := b.Date()
		if d < from || d > to {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
