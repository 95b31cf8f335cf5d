// Package watch turns file system activity into debounced change callbacks.
package watch

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period required before a change fires.
const DefaultDebounce = 3 * time.Second

// Source produces change notifications.
type Source interface {
	Subscribe(onChange func()) (Subscription, error)
}

// Subscription stops a running Source.
type Subscription interface {
	Cancel() error
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// debouncer runs fn once activity has been quiet for delay.
type debouncer struct {
	timer   *time.Timer
	fn      func()
	mu      sync.Mutex
	delay   time.Duration
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped {
		d.fn()
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
