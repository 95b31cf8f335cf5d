package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// HistoryLimit is how many snapshots the history tab loads.
	HistoryLimit = 200
)

// Backend is what the dashboard needs from the service manager.
type Backend interface {
	Refresh(ctx context.Context) (services.Result, error)
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
	Snapshots(email string, limit int) ([]models.SnapshotRecord, error)
	Latest() *services.Result
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(b Backend) tea.Cmd {
	ch, _ := b.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// refreshCmd runs one refresh. A refresh that is already running wins.
func refreshCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		_, err := b.Refresh(context.Background())
		return RefreshDoneMsg{Err: err}
	}
}

// loadHistoryCmd loads the stored snapshots of email.
func loadHistoryCmd(b Backend, email string) tea.Cmd {
	return func() tea.Msg {
		records, err := b.Snapshots(email, HistoryLimit)
		return HistoryLoadedMsg{Email: email, Records: records, Err: err}
	}
}

// LoadHistory is the exported form of loadHistoryCmd for tabs.
func LoadHistory(b Backend, email string) tea.Cmd {
	if b == nil || email == "" {
		return nil
	}
	return loadHistoryCmd(b, email)
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(typ NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: typ, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// refreshOutcomeCmd turns a RefreshDoneMsg into a notification.
func refreshOutcomeCmd(err error) tea.Cmd {
	switch {
	case err == nil:
		return notifySuccessCmd("Refreshed")
	case errors.Is(err, services.ErrRefreshInProgress):
		return notifyInfoCmd("Refresh already running")
	default:
		return notifyErrorCmd("Refresh failed: " + err.Error())
	}
}
