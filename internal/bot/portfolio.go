package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Document names a JSON file the trading bot writes and the dashboard reads.
type Document struct {
	File string
	// Empty is served when the bot has not written the file yet.
	Empty json.RawMessage
}

var (
	TradesDoc      = Document{File: "trades.json", Empty: json.RawMessage(`{"trades":[]}`)}
	PositionsDoc   = Document{File: "positions.json", Empty: json.RawMessage(`{"positions":[],"account":null}`)}
	PerformanceDoc = Document{File: "performance.json", Empty: json.RawMessage(`{"metrics":{},"daily_pnl":[]}`)}
)

// ErrMalformed reports a bot file that exists but does not hold valid JSON.
var ErrMalformed = errors.New("malformed bot data file")

// Portfolio serves bot-written portfolio documents verbatim.
type Portfolio struct {
	dir string
}

func NewPortfolio(dataDir string) *Portfolio {
	return &Portfolio{dir: dataDir}
}

// Read returns the document body. On error the document's empty value is
// still returned so callers can render something.
func (p *Portfolio) Read(ctx context.Context, doc Document) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return doc.Empty, err
	}
	raw, err := os.ReadFile(filepath.Join(p.dir, doc.File))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc.Empty, nil
		}
		return doc.Empty, fmt.Errorf("read %s: %w", doc.File, err)
	}
	if !json.Valid(raw) {
		return doc.Empty, fmt.Errorf("%w: %s", ErrMalformed, doc.File)
	}
	return json.RawMessage(raw), nil
}
