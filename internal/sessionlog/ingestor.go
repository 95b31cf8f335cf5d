package sessionlog

import (
	"errors"
	"io/fs"
	"time"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
)

// DefaultTailBytes is how much history a fresh reader looks at.
const DefaultTailBytes = 256 * 1024

// Ingestor follows whichever session log is currently newest. It keeps one
// Reader for the tracked file and replaces it when the file changes.
// Like Reader it must be confined to a single goroutine.
type Ingestor struct {
	reader    *Reader
	Locator   Locator
	TailBytes int64
}

// NewIngestor creates an ingestor rooted at the sessions directory.
func NewIngestor(root string, tailBytes int64) *Ingestor {
	if tailBytes <= 0 {
		tailBytes = DefaultTailBytes
	}
	return &Ingestor{
		Locator:   Locator{Root: root, MaxDirs: DefaultMaxDirs},
		TailBytes: tailBytes,
	}
}

// Next re-locates the newest log and returns the newest new event in it,
// or nil when nothing qualifying was appended. ErrLogsNotFound is returned
// when there is no log at all.
func (i *Ingestor) Next(since *time.Time) (*models.UsageEvent, error) {
	path, ok, err := i.Locator.Latest()
	if err != nil {
		return nil, err
	}
	if !ok {
		i.reset()
		return nil, ErrLogsNotFound
	}

	if i.reader == nil || i.reader.Path() != path {
		if err := i.open(path); err != nil {
			return nil, err
		}
	}

	ev, err := i.reader.Read(since)
	if errors.Is(err, ErrTruncated) {
		logger.Debug("session log truncated, reopening", "path", path)
		if err := i.open(path); err != nil {
			return nil, err
		}
		ev, err = i.reader.Read(since)
	}
	return ev, err
}

// Path returns the file currently tracked, or "".
func (i *Ingestor) Path() string {
	if i.reader == nil {
		return ""
	}
	return i.reader.Path()
}

// Close releases the current reader.
func (i *Ingestor) Close() error {
	if i.reader == nil {
		return nil
	}
	err := i.reader.Close()
	i.reader = nil
	return err
}

func (i *Ingestor) open(path string) error {
	i.reset()
	r, err := OpenTail(path, i.TailBytes)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrLogsNotFound
		}
		return err
	}
	logger.Debug("tracking session log", "path", path, "offset", r.Offset())
	i.reader = r
	return nil
}

func (i *Ingestor) reset() {
	if i.reader != nil {
		_ = i.reader.Close()
		i.reader = nil
	}
}
