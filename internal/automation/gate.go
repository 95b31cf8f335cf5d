// Package automation decides when background actions may run and runs them.
//
// Each policy is a Gate: an ordered list of checks over a persisted record,
// plus a function producing the record to store when every check passes.
package automation

import "time"

// BlockReason names the check that stopped an action. Empty means allowed.
type BlockReason string

const (
	ReasonNoAuth            BlockReason = "noAuth"
	ReasonWeeklyDepleted    BlockReason = "weeklyDepleted"
	ReasonTooSoon           BlockReason = "tooSoon"
	ReasonRecentFailure     BlockReason = "recentFailure"
	ReasonOutsideWindow     BlockReason = "outsideWindow"
	ReasonDailyLimitReached BlockReason = "dailyLimitReached"
	ReasonFiveHourStarted   BlockReason = "fiveHourStarted"
	ReasonWeeklyUsed        BlockReason = "weeklyUsed"
	ReasonNotReset          BlockReason = "notReset"
)

// Check returns a non-empty reason to block.
type Check[R any] func(now time.Time, record R) BlockReason

// Decision is the outcome of a Gate. Record is the updated record when
// Allowed, and the unchanged input otherwise.
type Decision[R any] struct {
	Record  R
	Reason  BlockReason
	Allowed bool
}

// Gate runs Checks in order; the first failure wins.
type Gate[R any] struct {
	Next   func(now time.Time, record R) R
	Checks []Check[R]
}

// Decide evaluates the gate.
func (g Gate[R]) Decide(now time.Time, record R) Decision[R] {
	for _, check := range g.Checks {
		if reason := check(now, record); reason != "" {
			return Decision[R]{Record: record, Reason: reason}
		}
	}
	next := record
	if g.Next != nil {
		next = g.Next(now, record)
	}
	return Decision[R]{Record: next, Allowed: true}
}

// when turns a precondition into a check.
func when[R any](blocked bool, reason BlockReason) Check[R] {
	return func(time.Time, R) BlockReason {
		if blocked {
			return reason
		}
		return ""
	}
}

// cooldown blocks while less than interval has passed since the time
// returned by last. A nil time never blocks.
func cooldown[R any](last func(R) *time.Time, interval time.Duration, reason BlockReason) Check[R] {
	return func(now time.Time, record R) BlockReason {
		if t := last(record); t != nil && now.Sub(*t) < interval {
			return reason
		}
		return ""
	}
}

// atHour returns today's hour:00 in now's location.
func atHour(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, now.Location())
}

func startOfDay(now time.Time) time.Time {
	return atHour(now, 0)
}
