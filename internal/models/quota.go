// Package models defines data structures and domain types.
package models

import "time"

// WindowKind identifies one of the two rolling quota windows.
type WindowKind string

const (
	// WindowFiveHour is the short rolling window (the log's "primary" limit).
	WindowFiveHour WindowKind = "fiveHour"
	// WindowWeekly is the long rolling window (the log's "secondary" limit).
	WindowWeekly WindowKind = "weekly"
)

// Label returns a human readable window name.
func (k WindowKind) Label() string {
	switch k {
	case WindowFiveHour:
		return "5-Hour"
	case WindowWeekly:
		return "Weekly"
	default:
		return string(k)
	}
}

// SnapshotSource records how a snapshot was obtained.
type SnapshotSource string

const (
	// SourceSessionLog marks snapshots parsed from a session log.
	SourceSessionLog SnapshotSource = "sessionLog"
	// SourceForcedRefresh marks snapshots observed right after a forced refresh.
	SourceForcedRefresh SnapshotSource = "forcedRefresh"
)

// UsageWindow is the state of one quota window.
// Once AssumedReset is set, UsedPercent stays 0 until a real event replaces the window.
type UsageWindow struct {
	ResetsAt      time.Time  `json:"resetsAt"`
	Kind          WindowKind `json:"kind"`
	UsedPercent   float64    `json:"usedPercent"`
	WindowMinutes int        `json:"windowMinutes"`
	IsStale       bool       `json:"isStale"`
	AssumedReset  bool       `json:"assumedReset"`
}

// Equal reports whether two windows hold the same values.
func (w UsageWindow) Equal(o UsageWindow) bool {
	return w.Kind == o.Kind &&
		w.UsedPercent == o.UsedPercent &&
		w.WindowMinutes == o.WindowMinutes &&
		w.ResetsAt.Equal(o.ResetsAt) &&
		w.IsStale == o.IsStale &&
		w.AssumedReset == o.AssumedReset
}

// Window returns the length of the window as a duration.
func (w UsageWindow) Window() time.Duration {
	if w.WindowMinutes <= 0 {
		return 0
	}
	return time.Duration(w.WindowMinutes) * time.Minute
}

// QuotaSnapshot is the complete quota observation for one account.
type QuotaSnapshot struct {
	CapturedAt time.Time      `json:"capturedAt"`
	Source     SnapshotSource `json:"source"`
	FiveHour   UsageWindow    `json:"fiveHour"`
	Weekly     UsageWindow    `json:"weekly"`
}

// Equal reports whether two snapshots hold the same values.
func (s QuotaSnapshot) Equal(o QuotaSnapshot) bool {
	return s.CapturedAt.Equal(o.CapturedAt) &&
		s.Source == o.Source &&
		s.FiveHour.Equal(o.FiveHour) &&
		s.Weekly.Equal(o.Weekly)
}

// Window returns the window of the given kind.
func (s QuotaSnapshot) Window(kind WindowKind) UsageWindow {
	if kind == WindowFiveHour {
		return s.FiveHour
	}
	return s.Weekly
}

// RateLimit is a single rate-limit reading from a session log line.
type RateLimit struct {
	ResetsAt      time.Time
	UsedPercent   float64
	WindowMinutes int
}

// UsageEvent is a parsed usage telemetry line. It is never persisted.
// Primary maps to the 5-hour window, Secondary to the weekly window.
type UsageEvent struct {
	Timestamp time.Time
	Primary   *RateLimit
	Secondary *RateLimit
}
