package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paper-trader/internal/store"
)

const controlFile = "bot_control.json"

// Controller reads and writes the bot control file. The trading bot polls the
// same file, so every write replaces it whole.
type Controller struct {
	dir        string
	serverless bool
	logger     *slog.Logger
	now        func() time.Time

	mu sync.Mutex
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(dataDir string, serverless bool, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		dir:        dataDir,
		serverless: serverless,
		logger:     logger.With("component", "bot"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Serverless() bool { return c.serverless }

func (c *Controller) path() string { return filepath.Join(c.dir, controlFile) }

// Status returns the current control state, creating the default file on first use.
// A corrupt file yields the default state carrying an error message.
func (c *Controller) Status(ctx context.Context) (ControlState, error) {
	if err := ctx.Err(); err != nil {
		return ControlState{}, err
	}
	if c.serverless {
		st := DefaultState(c.now())
		st.Error = strPtr("Bot can only run in local development environment")
		st.IsServerless = true
		return st, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.read()
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, os.ErrNotExist):
		st = DefaultState(c.now())
		if werr := store.WriteJSON(c.path(), st); werr != nil {
			return ControlState{}, fmt.Errorf("create control file: %w", werr)
		}
		c.logger.Info("created default control file", "path", c.path())
		return st, nil
	default:
		c.logger.Warn("failed to read control file", "error", err)
		st = DefaultState(c.now())
		st.Error = strPtr("Failed to read bot status")
		return st, nil
	}
}

// Apply moves the bot into the state named by action and returns the new
// state with a confirmation message.
func (c *Controller) Apply(ctx context.Context, action Action) (ControlState, string, error) {
	if err := ctx.Err(); err != nil {
		return ControlState{}, "", err
	}
	if _, err := ParseAction(string(action)); err != nil {
		return ControlState{}, "", err
	}
	if c.serverless {
		return ControlState{}, "", ErrServerless
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.currentOrDefault()
	if err != nil {
		return ControlState{}, "", err
	}
	prev := st.Status
	st.Status = action.Status()
	st.LastUpdated = c.now()
	st.Error = nil
	if err := store.WriteJSON(c.path(), st); err != nil {
		return ControlState{}, "", fmt.Errorf("write control file: %w", err)
	}

	c.logger.Info("bot state changed", "action", action, "from", prev, "to", st.Status)
	return st, fmt.Sprintf("Bot %s successfully", action.Past()), nil
}

// SetSymbols replaces the watchlist.
func (c *Controller) SetSymbols(ctx context.Context, symbols []string) (ControlState, error) {
	if err := ctx.Err(); err != nil {
		return ControlState{}, err
	}
	norm := NormalizeSymbols(symbols)
	if len(norm) == 0 {
		return ControlState{}, ErrNoSymbols
	}
	if c.serverless {
		return ControlState{}, ErrServerless
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.currentOrDefault()
	if err != nil {
		return ControlState{}, err
	}
	st.Symbols = norm
	st.LastUpdated = c.now()
	if err := store.WriteJSON(c.path(), st); err != nil {
		return ControlState{}, fmt.Errorf("write control file: %w", err)
	}
	c.logger.Info("watchlist updated", "symbols", norm)
	return st, nil
}

func (c *Controller) read() (ControlState, error) {
	var st ControlState
	if err := store.ReadJSON(c.path(), &st); err != nil {
		return ControlState{}, err
	}
	if st.Symbols == nil {
		st.Symbols = append([]string(nil), DefaultSymbols...)
	}
	return st, nil
}

// currentOrDefault must be called with c.mu held.
func (c *Controller) currentOrDefault() (ControlState, error) {
	st, err := c.read()
	if errors.Is(err, os.ErrNotExist) {
		return DefaultState(c.now()), nil
	}
	if err != nil {
		return ControlState{}, fmt.Errorf("read control file: %w", err)
	}
	return st, nil
}
