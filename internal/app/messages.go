package app

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/services"
)

// TickMsg is sent periodically to expire notifications and redraw countdowns.
type TickMsg struct {
	Time time.Time
}

// RefreshMsg requests a refresh.
type RefreshMsg struct{}

// RefreshDoneMsg reports the outcome of a user-triggered refresh. The result
// itself arrives through the service subscription.
type RefreshDoneMsg struct {
	Err error
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// HistoryLoadedMsg carries stored snapshots of one account.
type HistoryLoadedMsg struct {
	Err     error
	Email   string
	Records []models.SnapshotRecord
}

// SelectAccountMsg asks tabs to show another account.
type SelectAccountMsg struct {
	Email string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
