package models

import "time"

// ForcedRefreshRecord tracks forced refresh attempts for one account.
type ForcedRefreshRecord struct {
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`
	LastFailure *time.Time `json:"lastFailure,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
}

// DailyHelloRecord tracks keep-alive runs for one account.
// RunCount counts runs on the local day starting at DayAnchor.
type DailyHelloRecord struct {
	DayAnchor *time.Time `json:"dayAnchor,omitempty"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	RunCount  int        `json:"runCount"`
}

// WeeklyReminderRecord tracks weekly reset reminders for one account.
type WeeklyReminderRecord struct {
	LastNotified *time.Time `json:"lastNotified,omitempty"`
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
