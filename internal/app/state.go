// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired reports whether the notification has outlived its duration at now.
func (n *Notification) IsExpired(now time.Time) bool {
	if n.Duration <= 0 {
		return false
	}
	return now.Sub(n.CreatedAt) > n.Duration
}

// State is shared between the root model and its tabs.
type State struct {
	latest        *services.Result
	history       map[string][]models.SnapshotRecord
	now           func() time.Time
	selected      string
	notifications []Notification
	mu            sync.RWMutex
	seq           int
	refreshing    bool
}

// NewState creates an empty state. Tabs render a loading view until the
// first result arrives.
func NewState() *State {
	return &State{
		history: make(map[string][]models.SnapshotRecord),
		now:     time.Now,
	}
}

// Now returns the current time as seen by the UI.
func (s *State) Now() time.Time {
	return s.now()
}

// SetResult stores the latest refresh result.
func (s *State) SetResult(res services.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &res
	if s.selected == "" {
		s.selected = res.ActiveEmail
	}
}

// Result returns the latest refresh result, or nil before the first one.
func (s *State) Result() *services.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// IsInitialLoading reports whether no refresh has completed yet.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest == nil
}

// Accounts returns a copy of the configured accounts from the latest result.
func (s *State) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil || s.latest.State == nil {
		return nil
	}
	accounts := make([]models.Account, len(s.latest.State.Accounts))
	for i := range s.latest.State.Accounts {
		accounts[i] = s.latest.State.Accounts[i].Clone()
	}
	return accounts
}

// SetRefreshing records whether a user-triggered refresh is running.
func (s *State) SetRefreshing(refreshing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = refreshing
}

// IsRefreshing reports whether a user-triggered refresh is running.
func (s *State) IsRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// Selected returns the email whose history is shown.
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectNext moves the selection by delta through the configured accounts, wrapping around.
func (s *State) SelectNext(delta int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.latest.State == nil || len(s.latest.State.Accounts) == 0 {
		return s.selected
	}
	accounts := s.latest.State.Accounts
	n := len(accounts)
	i := slices.IndexFunc(accounts, func(a models.Account) bool { return a.Email == s.selected })
	if i < 0 {
		i = 0
	} else {
		i = ((i+delta)%n + n) % n
	}
	s.selected = accounts[i].Email
	return s.selected
}

// SetHistory replaces the stored snapshots of email.
func (s *State) SetHistory(email string, records []models.SnapshotRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[email] = records
}

// History returns the stored snapshots of email, newest first.
func (s *State) History(email string) []models.SnapshotRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history[email]
}

// AddNotification adds a notification and returns its ID.
func (s *State) AddNotification(typ NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := "n" + strconv.Itoa(s.seq)
	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      typ,
		Message:   message,
		CreatedAt: s.now(),
		Duration:  duration,
	})
	return id
}

// RemoveNotification removes the notification with the given ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.ID == id
	})
}

// ClearExpiredNotifications drops every expired notification.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
		return n.IsExpired(now)
	})
}

// Notifications returns a copy of the active notifications.
func (s *State) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}
