package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"paper-trader/internal/backtest"
)

var (
	// ErrNotFound is returned when no result exists for an id.
	ErrNotFound = errors.New("backtest result not found")
	// ErrInvalidID is returned by Create for ids that are not UUIDs. Lookups
	// by such ids report ErrNotFound since no result can be stored under them.
	ErrInvalidID = errors.New("invalid backtest result id")
)

const (
	resultPrefix = "backtest_"
	resultSuffix = ".json"
)

// ResultStore keeps one JSON document per backtest result in a directory.
type ResultStore struct {
	dir    string
	logger *slog.Logger
}

func NewResultStore(dir string, logger *slog.Logger) *ResultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultStore{dir: dir, logger: logger.With("component", "store")}
}

func (s *ResultStore) Dir() string { return s.dir }

func (s *ResultStore) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.dir, resultPrefix+strings.ToLower(id)+resultSuffix), nil
}

// Create persists r. An existing file with the same id is replaced.
func (s *ResultStore) Create(ctx context.Context, r *backtest.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil {
		return errors.New("nil result")
	}
	p, err := s.path(r.ID)
	if err != nil {
		return err
	}
	if err := WriteJSON(p, r); err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	s.logger.Debug("result saved", "id", r.ID, "path", p)
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id string) (*backtest.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	var r backtest.Result
	if err := ReadJSON(p, &r); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	return &r, nil
}

// List returns every stored result, newest first. Unreadable files are skipped.
func (s *ResultStore) List(ctx context.Context) ([]*backtest.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*backtest.Result{}, nil
		}
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]*backtest.Result, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, resultPrefix) || !strings.HasSuffix(name, resultSuffix) {
			continue
		}
		var r backtest.Result
		if err := ReadJSON(filepath.Join(s.dir, name), &r); err != nil {
			s.logger.Warn("skipping unreadable result", "file", name, "error", err)
			continue
		}
		out = append(out, &r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes the result for id and nothing else.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete result %s: %w", id, err)
	}
	s.logger.Info("result deleted", "id", id)
	return nil
}
