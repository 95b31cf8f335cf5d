// Package notify decides when quota alerts fire and delivers them.
package notify

import (
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/usage"
)

// Event is one threshold crossing for one account window.
type Event struct {
	Email     string
	Label     string
	Window    models.WindowKind
	Remaining models.Percent
	Ordinal   int
	Level     models.ThresholdLevel
}

// Evaluation carries the ledger entry to store and the alerts to send.
type Evaluation struct {
	Snapshot models.ThresholdSnapshot
	Events   []Event
}

// Evaluator applies the alert ratchet.
type Evaluator struct {
	Thresholds usage.Thresholds
}

// NewEvaluator creates an evaluator using the given thresholds.
func NewEvaluator(thresholds usage.Thresholds) Evaluator {
	return Evaluator{Thresholds: thresholds}
}

// Evaluate compares the account's current levels with the previous ledger
// entry. It returns false when the account has no usable weekly data.
//
// An alert fires only when a window's level rises above the stored one and is
// not normal. The 5-hour window is skipped, and dropped from the ledger, while
// weekly remaining is at or below the critical cut point. The returned
// snapshot must be stored even when no event fired.
func (e Evaluator) Evaluate(account *models.Account, previous *models.ThresholdSnapshot) (Evaluation, bool) {
	weeklyRemaining, ok := usage.WeeklyRemaining(account)
	if !ok {
		return Evaluation{}, false
	}

	weeklyLevel := e.Thresholds.Level(weeklyRemaining)
	eval := Evaluation{Snapshot: models.ThresholdSnapshot{Weekly: weeklyLevel}}

	var prevWeekly, prevFiveHour *models.ThresholdLevel
	if previous != nil {
		prevWeekly = models.LevelPtr(previous.Weekly)
		prevFiveHour = previous.FiveHour
	}

	if shouldNotify(prevWeekly, weeklyLevel) {
		eval.Events = append(eval.Events, newEvent(account, models.WindowWeekly, weeklyLevel, weeklyRemaining))
	}

	if weeklyRemaining.AtMost(e.Thresholds.Critical) {
		return eval, true
	}

	fiveRemaining, ok := usage.Remaining(account, models.WindowFiveHour)
	if !ok {
		return eval, true
	}
	fiveLevel := e.Thresholds.Level(fiveRemaining)
	eval.Snapshot.FiveHour = models.LevelPtr(fiveLevel)
	if shouldNotify(prevFiveHour, fiveLevel) {
		eval.Events = append(eval.Events, newEvent(account, models.WindowFiveHour, fiveLevel, fiveRemaining))
	}
	return eval, true
}

func shouldNotify(previous *models.ThresholdLevel, current models.ThresholdLevel) bool {
	if current == models.LevelNormal {
		return false
	}
	return previous == nil || current > *previous
}

func newEvent(a *models.Account, window models.WindowKind, level models.ThresholdLevel, remaining models.Percent) Event {
	return Event{
		Email:     a.Email,
		Label:     a.Label(),
		Ordinal:   a.Ordinal,
		Window:    window,
		Level:     level,
		Remaining: remaining,
	}
}
