package sessionlog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultMaxDirs bounds how many session directories Latest inspects
// before falling back to a full walk.
const DefaultMaxDirs = 25

const logExt = ".jsonl"

// Locator finds the session log most likely to hold the newest events.
// Typical layout is <root>/<session>/rollout-*.jsonl, but loose files
// directly under Root are considered too.
type Locator struct {
	Root    string
	MaxDirs int
}

type candidate struct {
	path    string
	modTime time.Time
}

// Latest returns the newest .jsonl file under Root. A missing root or an
// empty tree is reported as ok == false with a nil error.
func (l Locator) Latest() (path string, ok bool, err error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}

	var dirs, files []candidate
	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		full := filepath.Join(l.Root, entry.Name())
		switch {
		case entry.IsDir():
			dirs = append(dirs, candidate{full, info.ModTime()})
		case isLogFile(entry.Name()):
			files = append(files, candidate{full, info.ModTime()})
		}
	}

	sortNewestFirst(dirs)
	sortNewestFirst(files)

	var newest *candidate
	if len(files) > 0 {
		newest = &files[0]
	}

	maxDirs := l.MaxDirs
	if maxDirs <= 0 {
		maxDirs = DefaultMaxDirs
	}
	if len(dirs) > maxDirs {
		dirs = dirs[:maxDirs]
	}
	for _, dir := range dirs {
		if c, found := newestInDir(dir.path); found && (newest == nil || c.modTime.After(newest.modTime)) {
			newest = &c
		}
	}

	if newest != nil {
		return newest.path, true, nil
	}

	if c, found := l.walk(); found {
		return c.path, true, nil
	}
	return "", false, nil
}

// newestInDir returns the newest regular log file directly inside dir.
func newestInDir(dir string) (candidate, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return candidate{}, false
	}
	var best candidate
	found := false
	for _, entry := range entries {
		if isHidden(entry.Name()) || !entry.Type().IsRegular() || !isLogFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(best.modTime) {
			best = candidate{filepath.Join(dir, entry.Name()), info.ModTime()}
			found = true
		}
	}
	return best, found
}

// walk is the unbounded fallback for deeper layouts such as
// sessions/YYYY/MM/DD/rollout-*.jsonl.
func (l Locator) walk() (candidate, bool) {
	var best candidate
	found := false
	_ = filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != l.Root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isLogFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !found || info.ModTime().After(best.modTime) {
			best = candidate{path, info.ModTime()}
			found = true
		}
		return nil
	})
	return best, found
}

func sortNewestFirst(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].modTime.After(c[j].modTime)
	})
}

func isLogFile(name string) bool {
	return strings.HasSuffix(name, logExt)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
