// Package store persists the application state as a single JSON document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
)

var (
	// ErrDirectoryUnavailable means the state directory could not be created.
	ErrDirectoryUnavailable = errors.New("state directory unavailable")
	// ErrFailedToRead means the state file exists but could not be read or decoded.
	ErrFailedToRead = errors.New("failed to read state")
	// ErrFailedToWrite means the state could not be written.
	ErrFailedToWrite = errors.New("failed to write state")
)

const (
	backupDir    = "backups"
	backupPrefix = "state-"
	backupSuffix = ".json"
	backupStamp  = "20060102T150405.000Z"
)

// Options tunes backups and legacy migration.
type Options struct {
	Now            func() time.Time
	LegacyMatch    func(dirName string) bool
	BackupInterval time.Duration
	MaxBackups     int
}

// DefaultOptions backs up at most every 6h and keeps 10 backups.
func DefaultOptions() Options {
	return Options{
		Now:            time.Now,
		LegacyMatch:    DefaultLegacyMatch,
		BackupInterval: 6 * time.Hour,
		MaxBackups:     10,
	}
}

// DefaultLegacyMatch accepts directories from earlier releases, such as
// "com.example.codexhud" or "codex-hud".
func DefaultLegacyMatch(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	return strings.Contains(n, "codexhud")
}

// Store reads and writes the state file. Saves are serialized within the
// process; across processes the last rename wins.
type Store struct {
	mu   sync.Mutex
	path string
	opts Options
}

// New creates a store for path, creating its directory and adopting a
// legacy state file when one holds more accounts than the current one.
func New(path string, opts Options) (*Store, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	s := &Store{path: path, opts: opts}
	if opts.LegacyMatch != nil {
		if err := s.migrateLegacy(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored state, or nil when no state file exists.
func (s *Store) Load() (*models.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readState(s.path)
}

// Save writes state atomically, backing up the previous file first when due.
func (s *Store) Save(state *models.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(state)
}

// Update loads the state (or a new one), applies fn and saves the result.
// Nothing is written when fn fails.
func (s *Store) Update(fn func(*models.AppState) error) (*models.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := readState(s.path)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewAppState()
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.saveLocked(state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) saveLocked(state *models.AppState) error {
	data, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToWrite, err)
	}

	if err := s.backup(len(state.Accounts)); err != nil {
		logger.Warn("state backup failed", "path", s.path, "error", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToWrite, err)
	}
	return nil
}

func readState(path string) (*models.AppState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToRead, err)
	}

	var state models.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFailedToRead, path, err)
	}
	state.EnsureMaps()
	return &state, nil
}

// encodeState renders state as indented JSON with object keys sorted.
func encodeState(state *models.AppState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
