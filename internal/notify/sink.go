package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/recommend"
)

// ReminderEvent announces that an account's weekly window has reset and is
// waiting for a first message.
type ReminderEvent struct {
	ResetsAt time.Time
	Email    string
	Label    string
	Ordinal  int
}

// Sink delivers user-visible alerts.
type Sink interface {
	Alerts(events []Event, rec recommend.Decision) error
	WeeklyReminder(ev ReminderEvent) error
	HelloSent(account *models.Account, at time.Time) error
}

// DesktopSink sends desktop notifications through beeep.
// When Enabled is false messages are only logged.
type DesktopSink struct {
	notify  func(title, body string) error
	Enabled bool
}

// NewDesktopSink creates a sink backed by the OS notification service.
func NewDesktopSink(enabled bool) *DesktopSink {
	return &DesktopSink{
		Enabled: enabled,
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// Alerts sends one notification per event.
func (s *DesktopSink) Alerts(events []Event, rec recommend.Decision) error {
	var errs []error
	for _, ev := range events {
		if err := s.send(AlertTitle(ev), AlertBody(ev, rec)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WeeklyReminder sends the weekly reset reminder.
func (s *DesktopSink) WeeklyReminder(ev ReminderEvent) error {
	return s.send("Codex HUD: Weekly Reset Ready", ReminderBody(ev))
}

// HelloSent confirms that a keep-alive message started the 5-hour window.
func (s *DesktopSink) HelloSent(account *models.Account, at time.Time) error {
	return s.send("Codex HUD: 5-Hour Window Started", HelloBody(account, at))
}

func (s *DesktopSink) send(title, body string) error {
	if !s.Enabled || s.notify == nil {
		logger.Info("notification", "title", title, "body", body)
		return nil
	}
	if err := s.notify(title, body); err != nil {
		return fmt.Errorf("desktop notification %q: %w", title, err)
	}
	return nil
}

// AlertTitle returns e.g. "Codex HUD: Weekly Critical".
func AlertTitle(ev Event) string {
	level := "Notice"
	switch ev.Level {
	case models.LevelCritical:
		level = "Critical"
	case models.LevelWarning:
		level = "Warning"
	}
	return fmt.Sprintf("Codex HUD: %s %s", ev.Window.Label(), level)
}

// AlertBody describes the remaining quota, suggesting a switch on critical
// alerts when a different account is recommended.
func AlertBody(ev Event, rec recommend.Decision) string {
	body := fmt.Sprintf("%s (%s) has %d%% remaining.", ev.Label, ev.Email, int(ev.Remaining.Value()))
	next := rec.Recommended
	if next == nil || ev.Level != models.LevelCritical || next.Email == ev.Email {
		return body
	}
	return fmt.Sprintf("%s Switch to %s (%s).", body, next.Label(), next.Email)
}

// ReminderBody describes a weekly reset.
func ReminderBody(ev ReminderEvent) string {
	return fmt.Sprintf("%s (%s) reset at %s. Log in and send a message to start the weekly window.",
		ev.Label, ev.Email, ev.ResetsAt.Local().Format("Jan 2, 2006 3:04 PM"))
}

// HelloBody describes a sent keep-alive.
func HelloBody(account *models.Account, at time.Time) string {
	return fmt.Sprintf("Hello sent at %s for %s (%s).",
		at.Local().Format("3:04 PM"), account.Label(), account.Email)
}
