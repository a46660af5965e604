// Package artifact persists the latest StatsResult as a JSON file and reads it
// back for the transport layer.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"sales-stats/internal/report"
)

var (
	// ErrNotComputed indicates no artifact has been written yet.
	ErrNotComputed = errors.New("artifact: statistics not computed yet")
	// ErrCorrupt indicates the artifact exists but cannot be decoded.
	ErrCorrupt = errors.New("artifact: statistics file is unreadable")
)

// Store reads and writes the artifact at a fixed path.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore constructs a Store for path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, logger: logger.With().Str("component", "artifact").Logger()}
}

// Path returns the artifact location.
func (s *Store) Path() string { return s.path }

// Publish writes run.Result atomically: a temp file in the same directory is
// renamed over the target, so readers never observe a partial artifact.
func (s *Store) Publish(ctx context.Context, run report.Run) error {
	commit, discard, err := s.Stage(ctx, run)
	if err != nil {
		return err
	}
	if err := commit(); err != nil {
		discard()
		return err
	}
	return nil
}

// Stage writes run.Result to a temp file next to the target without replacing
// it. commit renames the temp file over the target; discard removes it and is
// a no-op after a successful commit.
func (s *Store) Stage(ctx context.Context, run report.Run) (commit func() error, discard func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := json.MarshalIndent(run.Result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode artifact: %w", err)
	}
	data = append(data, '\n')

	if err := ensureDir(s.path); err != nil {
		return nil, nil, fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".stats-*.json")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, nil, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, nil, fmt.Errorf("close artifact: %w", err)
	}

	committed := false
	commit = func() error {
		if err := os.Rename(tmpName, s.path); err != nil {
			return fmt.Errorf("replace artifact: %w", err)
		}
		committed = true
		s.logger.Info().Str("path", s.path).Msg("artifact written")
		return nil
	}
	discard = func() {
		if !committed {
			os.Remove(tmpName)
		}
	}
	return commit, discard, nil
}

// Load returns the decoded artifact along with its exact bytes.
func (s *Store) Load() (report.StatsResult, []byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report.StatsResult{}, nil, ErrNotComputed
		}
		return report.StatsResult{}, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var res report.StatsResult
	if err := json.Unmarshal(data, &res); err != nil {
		return report.StatsResult{}, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return res, data, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
