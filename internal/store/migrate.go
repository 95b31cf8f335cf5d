package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
)

// migrateLegacy scans sibling directories of the state directory for a state
// file with the same name. The candidate with the most accounts wins, and the
// current file counts as a candidate, so a populated target is never replaced
// by a smaller legacy file.
func (s *Store) migrateLegacy() error {
	dir := filepath.Dir(s.path)
	parent := filepath.Dir(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		logger.Debug("legacy scan skipped", "dir", parent, "error", err)
		return nil
	}

	current, err := readState(s.path)
	if err != nil {
		logger.Warn("legacy migration skipped, current state unreadable", "error", err)
		return nil
	}
	bestCount := -1
	if current != nil {
		bestCount = len(current.Accounts)
	}

	var (
		best     *models.AppState
		bestPath string
	)
	self := filepath.Base(dir)
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == self || strings.HasPrefix(name, ".") || !s.opts.LegacyMatch(name) {
			continue
		}
		candidate := filepath.Join(parent, name, filepath.Base(s.path))
		state, err := readState(candidate)
		if err != nil || state == nil {
			continue
		}
		if len(state.Accounts) > bestCount {
			best, bestPath, bestCount = state, candidate, len(state.Accounts)
		}
	}

	if best == nil {
		return nil
	}
	logger.Info("adopting legacy state", "from", bestPath, "accounts", bestCount)
	return s.Save(best)
}
