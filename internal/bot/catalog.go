package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paper-trader/internal/store"
)

const (
	strategiesFile = "strategies.json"
	selectionFile  = "strategy_selection.json"
)

var (
	ErrCatalogNotFound  = errors.New("strategies catalog not found")
	ErrInvalidSelection = errors.New("invalid strategy selection format")
)

// Selection is the per-symbol strategy choice the bot reads on startup.
type Selection struct {
	SelectedStrategies map[string]any `json:"selected_strategies"`
	LastUpdated        time.Time      `json:"last_updated"`
	IsServerless       bool           `json:"isServerless,omitempty"`
}

// Catalog serves the exported strategy catalog and stores the user's selection.
type Catalog struct {
	dir        string
	serverless bool
	now        func() time.Time

	mu sync.Mutex
}

func NewCatalog(dataDir string, serverless bool) *Catalog {
	return &Catalog{
		dir:        dataDir,
		serverless: serverless,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Strategies returns strategies.json untouched.
func (c *Catalog) Strategies(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(c.dir, strategiesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("read strategies: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("read strategies: %s is not valid JSON", strategiesFile)
	}
	return json.RawMessage(raw), nil
}

// Selection returns the saved selection, or an empty one when none exists.
func (c *Catalog) Selection(ctx context.Context) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	empty := Selection{SelectedStrategies: map[string]any{}, LastUpdated: c.now()}
	if c.serverless {
		empty.IsServerless = true
		return empty, nil
	}

	var sel Selection
	err := store.ReadJSON(filepath.Join(c.dir, selectionFile), &sel)
	if errors.Is(err, os.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("read selection: %w", err)
	}
	if sel.SelectedStrategies == nil {
		sel.SelectedStrategies = map[string]any{}
	}
	return sel, nil
}

// SaveSelection replaces the stored selection.
func (c *Catalog) SaveSelection(ctx context.Context, selected map[string]any) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	if selected == nil {
		return Selection{}, ErrInvalidSelection
	}
	if c.serverless {
		return Selection{}, ErrServerless
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sel := Selection{SelectedStrategies: selected, LastUpdated: c.now()}
	if err := store.WriteJSON(filepath.Join(c.dir, selectionFile), sel); err != nil {
		return Selection{}, fmt.Errorf("save selection: %w", err)
	}
	return sel, nil
}
