// Package usage tracks the lifecycle of quota windows: building snapshots
// from log events, synthesizing resets when data is late, and classifying
// accounts against thresholds.
package usage

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// Normalize applies assumed resets to every window whose reset instant has
// passed. The snapshot is returned unchanged when no window needed it.
func Normalize(s models.QuotaSnapshot, now time.Time) models.QuotaSnapshot {
	fiveHour, fiveChanged := NormalizeWindow(s.FiveHour, now)
	weekly, weeklyChanged := NormalizeWindow(s.Weekly, now)
	if !fiveChanged && !weeklyChanged {
		return s
	}
	s.FiveHour = fiveHour
	s.Weekly = weekly
	return s
}

// NormalizeWindow zeroes a window whose reset instant is at or before now and
// moves ResetsAt to the end of the cycle containing now. A window that was
// already assumed reset is left alone.
func NormalizeWindow(w models.UsageWindow, now time.Time) (models.UsageWindow, bool) {
	if now.Before(w.ResetsAt) || w.AssumedReset {
		return w, false
	}
	w.UsedPercent = 0
	w.IsStale = true
	w.AssumedReset = true
	w.ResetsAt = rollForward(w.ResetsAt, w.Window(), now)
	return w, true
}

// rollForward advances from in whole steps until strictly after now.
// A non-positive step yields now.
func rollForward(from time.Time, step time.Duration, now time.Time) time.Time {
	if step <= 0 {
		return now
	}
	if from.After(now) {
		return from
	}
	cycles := now.Sub(from)/step + 1
	next := from.Add(step * cycles)
	for !next.After(now) {
		next = next.Add(step)
	}
	return next
}

// CycleStart returns the start of the cycle a window describes.
func CycleStart(w models.UsageWindow) time.Time {
	return w.ResetsAt.Add(-w.Window())
}
