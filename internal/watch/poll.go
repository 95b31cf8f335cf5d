package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is how often PollSource rescans.
const DefaultPollInterval = 5 * time.Second

// PollSource detects changes by periodically comparing file metadata under
// Root and of Files. It serves file systems without native notifications.
type PollSource struct {
	Root     string
	Files    []string
	Interval time.Duration
	Debounce time.Duration
}

// fingerprint summarizes the watched files; any difference counts as a change.
type fingerprint struct {
	newest int64
	size   int64
	count  int
}

// Subscribe starts polling in a background goroutine.
func (s *PollSource) Subscribe(onChange func()) (Subscription, error) {
	sub := &pollSubscription{
		deb:  newDebouncer(orDefault(s.Debounce, time.Millisecond), onChange),
		done: make(chan struct{}),
	}
	last := s.scan()
	ticker := time.NewTicker(orDefault(s.Interval, DefaultPollInterval))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if cur := s.scan(); cur != last {
					last = cur
					sub.deb.trigger()
				}
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}

func (s *PollSource) scan() fingerprint {
	var fp fingerprint
	add := func(info fs.FileInfo) {
		fp.count++
		fp.size += info.Size()
		fp.newest = max(fp.newest, info.ModTime().UnixNano())
	}

	if s.Root != "" {
		_ = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") && path != s.Root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				add(info)
			}
			return nil
		})
	}
	for _, f := range s.Files {
		if info, err := os.Stat(f); err == nil {
			add(info)
		}
	}
	return fp
}

type pollSubscription struct {
	deb  *debouncer
	done chan struct{}
	once sync.Once
}

// Cancel stops polling. It is safe to call more than once.
func (s *pollSubscription) Cancel() error {
	s.once.Do(func() {
		close(s.done)
		s.deb.stop()
	})
	return nil
}
