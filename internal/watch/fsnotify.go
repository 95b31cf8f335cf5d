package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/codexhud/internal/logger"
)

// FSNotifySource watches Root recursively and the individual Files through
// native file system notifications.
type FSNotifySource struct {
	Root     string
	Files    []string
	Debounce time.Duration
}

// Subscribe starts watching. Directories created under Root later are
// added as they appear.
func (s *FSNotifySource) Subscribe(onChange func()) (Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	sub := &fsSubscription{
		watcher: watcher,
		root:    filepath.Clean(s.Root),
		files:   make(map[string]bool, len(s.Files)),
		deb:     newDebouncer(orDefault(s.Debounce, DefaultDebounce), onChange),
		done:    make(chan struct{}),
	}

	if s.Root != "" {
		if err := sub.addTree(sub.root); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", s.Root, err)
		}
	}
	for _, f := range s.Files {
		f = filepath.Clean(f)
		if err := watcher.Add(filepath.Dir(f)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", f, err)
		}
		sub.files[f] = true
	}

	go sub.loop()
	return sub, nil
}

type fsSubscription struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	deb     *debouncer
	done    chan struct{}
	root    string
	once    sync.Once
}

func (s *fsSubscription) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return s.watcher.Add(path)
	})
}

func (s *fsSubscription) inTree(path string) bool {
	if s.root == "." || s.root == "" {
		return false
	}
	return path == s.root || strings.HasPrefix(path, s.root+string(filepath.Separator))
}

func (s *fsSubscription) loop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", "error", err)

		case <-s.done:
			return
		}
	}
}

func (s *fsSubscription) handle(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	if s.files[name] {
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
			s.deb.trigger()
		}
		return
	}
	if !s.inTree(name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := s.addTree(name); err != nil {
				logger.Warn("failed to watch new directory", "path", name, "error", err)
			}
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		s.deb.trigger()
	}
}

// Cancel stops the watcher. It is safe to call more than once.
func (s *fsSubscription) Cancel() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.deb.stop()
		err = s.watcher.Close()
	})
	return err
}
