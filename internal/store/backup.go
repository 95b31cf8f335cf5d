package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/j-veylop/codexhud/internal/logger"
)

// backup copies the current state file into the backups directory. It is
// unconditional when the new state has fewer accounts than the current file,
// and otherwise runs at most once per BackupInterval.
func (s *Store) backup(newCount int) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	dir := filepath.Join(filepath.Dir(s.path), backupDir)
	now := s.opts.Now().UTC()

	shrinking := true
	if prev, err := readState(s.path); err == nil && prev != nil {
		shrinking = newCount < len(prev.Accounts)
	}
	if !shrinking {
		if latest, ok := s.latestBackup(dir); ok && now.Sub(latest) < s.opts.BackupInterval {
			return nil
		}
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	name := backupPrefix + now.Format(backupStamp) + backupSuffix
	if err := writeAtomic(filepath.Join(dir, name), data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	logger.Debug("state backed up", "file", name, "shrinking", shrinking)

	return s.prune(dir)
}

// Backups returns backup file paths, oldest first.
func (s *Store) Backups() ([]string, error) {
	dir := filepath.Join(filepath.Dir(s.path), backupDir)
	names, err := backupNames(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

func (s *Store) latestBackup(dir string) (time.Time, bool) {
	names, err := backupNames(dir)
	if err != nil || len(names) == 0 {
		return time.Time{}, false
	}
	newest := names[len(names)-1]
	stamp := strings.TrimSuffix(strings.TrimPrefix(newest, backupPrefix), backupSuffix)
	if t, err := time.Parse(backupStamp, stamp); err == nil {
		return t, true
	}
	info, err := os.Stat(filepath.Join(dir, newest))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (s *Store) prune(dir string) error {
	if s.opts.MaxBackups <= 0 {
		return nil
	}
	names, err := backupNames(dir)
	if err != nil {
		return err
	}
	for len(names) > s.opts.MaxBackups {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil && !os.IsNotExist(err) {
			return err
		}
		names = names[1:]
	}
	return nil
}

// backupNames lists backup files sorted by name, which sorts by time.
func backupNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupSuffix) {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names, nil
}
