package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Action is a control command sent from the dashboard.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionStop  Action = "stop"
)

var (
	ErrInvalidAction = errors.New("invalid action, must be start, pause, or stop")
	ErrNoSymbols     = errors.New("at least one symbol is required")
	// ErrServerless rejects writes when the bot's data directory is not local.
	ErrServerless = errors.New("bot data is only writable in a local environment")
)

// DefaultSymbols is the watchlist of a freshly created control file.
var DefaultSymbols = []string{"AAPL", "MSFT", "GOOGL", "TSLA"}

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionStart, ActionPause, ActionStop:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Status is the state an action moves the bot into. Every state accepts every action.
func (a Action) Status() Status {
	switch a {
	case ActionStart:
		return StatusRunning
	case ActionPause:
		return StatusPaused
	default:
		return StatusStopped
	}
}

// Past is used in user-facing messages ("Bot started successfully").
func (a Action) Past() string {
	switch a {
	case ActionStart:
		return "started"
	case ActionPause:
		return "paused"
	default:
		return "stopped"
	}
}

// ControlState mirrors bot_control.json, shared with the trading bot process.
type ControlState struct {
	Status       Status    `json:"status"`
	Mode         Mode      `json:"mode"`
	LastUpdated  time.Time `json:"last_updated"`
	Error        *string   `json:"error"`
	Symbols      []string  `json:"symbols"`
	IsServerless bool      `json:"isServerless,omitempty"`

	// Extra holds keys written by the trading bot that this service does not
	// interpret. They are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

var controlKeys = []string{"status", "mode", "last_updated", "error", "symbols", "isServerless"}

func (s *ControlState) UnmarshalJSON(b []byte) error {
	type plain ControlState
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range controlKeys {
		delete(all, k)
	}
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}
	*s = ControlState(p)
	return nil
}

func (s ControlState) MarshalJSON() ([]byte, error) {
	type plain ControlState
	raw, err := json.Marshal(plain(s))
	if err != nil || len(s.Extra) == 0 {
		return raw, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func DefaultState(now time.Time) ControlState {
	return ControlState{
		Status:      StatusStopped,
		Mode:        ModePaper,
		LastUpdated: now,
		Symbols:     append([]string(nil), DefaultSymbols...),
	}
}

// NormalizeSymbols upper-cases and trims symbols, dropping blanks and duplicates
// while keeping first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func strPtr(s string) *string { return &s }
