package automation

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// DailyHelloPolicy bounds keep-alive messages. Hours are local, EndHour exclusive.
type DailyHelloPolicy struct {
	StartHour       int
	EndHour         int
	MaxRunsPerDay   int
	MinimumInterval time.Duration
}

// DefaultDailyHelloPolicy allows up to three runs between 09:00 and 21:00, 5h apart.
func DefaultDailyHelloPolicy() DailyHelloPolicy {
	return DailyHelloPolicy{
		StartHour:       9,
		EndHour:         21,
		MaxRunsPerDay:   3,
		MinimumInterval: 5 * time.Hour,
	}
}

// DailyHelloEvaluator gates the message that starts the 5-hour window early in the day.
type DailyHelloEvaluator struct {
	Policy DailyHelloPolicy
}

// Decide reports whether a keep-alive may be sent now. fiveHourStarted
// reports whether today's 5-hour window is already running.
func (e DailyHelloEvaluator) Decide(now time.Time, record models.DailyHelloRecord, fiveHourStarted bool) Decision[models.DailyHelloRecord] {
	p := e.Policy
	gate := Gate[models.DailyHelloRecord]{
		Checks: []Check[models.DailyHelloRecord]{
			func(now time.Time, _ models.DailyHelloRecord) BlockReason {
				if h := now.Hour(); h < p.StartHour || h >= p.EndHour {
					return ReasonOutsideWindow
				}
				return ""
			},
			func(now time.Time, r models.DailyHelloRecord) BlockReason {
				if sameDay(r.DayAnchor, now) && r.RunCount >= p.MaxRunsPerDay {
					return ReasonDailyLimitReached
				}
				return ""
			},
			cooldown(func(r models.DailyHelloRecord) *time.Time { return r.LastRun },
				p.MinimumInterval, ReasonTooSoon),
			when[models.DailyHelloRecord](fiveHourStarted, ReasonFiveHourStarted),
		},
		Next: func(now time.Time, r models.DailyHelloRecord) models.DailyHelloRecord {
			if !sameDay(r.DayAnchor, now) {
				r.RunCount = 0
			}
			r.RunCount++
			r.DayAnchor = models.TimePtr(startOfDay(now))
			r.LastRun = models.TimePtr(now)
			return r
		},
	}
	return gate.Decide(now, record)
}

func sameDay(anchor *time.Time, now time.Time) bool {
	return anchor != nil && anchor.Equal(startOfDay(now))
}

// FiveHourStarted reports whether the account's 5-hour window already shows
// usage in a snapshot captured today after startHour.
func FiveHourStarted(account *models.Account, now time.Time, startHour int) bool {
	if account == nil || account.LastSnapshot == nil {
		return false
	}
	snap := account.LastSnapshot
	if snap.CapturedAt.Before(atHour(now, startHour)) {
		return false
	}
	return snap.FiveHour.UsedPercent > 0
}
