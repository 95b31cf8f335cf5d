package usage

import (
	"errors"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// ErrIncompleteEvent is returned when an event lacks one of the two windows.
var ErrIncompleteEvent = errors.New("usage event is missing a rate limit window")

// SnapshotFromEvent builds a snapshot from an event carrying both windows.
func SnapshotFromEvent(ev *models.UsageEvent, source models.SnapshotSource) (models.QuotaSnapshot, error) {
	if ev == nil || ev.Primary == nil || ev.Secondary == nil {
		return models.QuotaSnapshot{}, ErrIncompleteEvent
	}
	return models.QuotaSnapshot{
		CapturedAt: ev.Timestamp,
		Source:     source,
		FiveHour:   windowFromLimit(models.WindowFiveHour, ev.Primary),
		Weekly:     windowFromLimit(models.WindowWeekly, ev.Secondary),
	}, nil
}

func windowFromLimit(kind models.WindowKind, rl *models.RateLimit) models.UsageWindow {
	return models.UsageWindow{
		Kind:          kind,
		UsedPercent:   rl.UsedPercent,
		WindowMinutes: rl.WindowMinutes,
		ResetsAt:      rl.ResetsAt,
	}
}

// Merge folds a freshly observed snapshot into the previous one.
//
// A snapshot captured before prev is ignored. Otherwise each window is
// replaced by the observed one, except that an assumed-reset window survives
// an observation captured before its cycle began: that observation still
// describes the previous cycle. The bool reports whether the result differs
// from prev.
func Merge(prev *models.QuotaSnapshot, next models.QuotaSnapshot) (models.QuotaSnapshot, bool) {
	if prev == nil {
		return next, true
	}
	if next.CapturedAt.Before(prev.CapturedAt) {
		return *prev, false
	}

	merged := next
	merged.FiveHour = mergeWindow(prev.FiveHour, next.FiveHour, next.CapturedAt)
	merged.Weekly = mergeWindow(prev.Weekly, next.Weekly, next.CapturedAt)
	return merged, !merged.Equal(*prev)
}

func mergeWindow(prev, next models.UsageWindow, observedAt time.Time) models.UsageWindow {
	if prev.AssumedReset && observedAt.Before(CycleStart(prev)) {
		return prev
	}
	return next
}
