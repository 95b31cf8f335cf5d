package automation

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// WeeklyReminderPolicy bounds reset reminders. Hours are local and the
// window includes EndHour:00 itself.
type WeeklyReminderPolicy struct {
	StartHour int
	EndHour   int
	Interval  time.Duration
}

// DefaultWeeklyReminderPolicy reminds between 09:00 and 22:00, at most every 5h.
func DefaultWeeklyReminderPolicy() WeeklyReminderPolicy {
	return WeeklyReminderPolicy{StartHour: 9, EndHour: 22, Interval: 5 * time.Hour}
}

// WeeklyReminderEvaluator gates the reminder to start a freshly reset week.
type WeeklyReminderEvaluator struct {
	Policy WeeklyReminderPolicy
}

// Decide reports whether the reminder for weekly may be sent now.
func (e WeeklyReminderEvaluator) Decide(now time.Time, weekly models.UsageWindow, record models.WeeklyReminderRecord) Decision[models.WeeklyReminderRecord] {
	p := e.Policy
	gate := Gate[models.WeeklyReminderRecord]{
		Checks: []Check[models.WeeklyReminderRecord]{
			when[models.WeeklyReminderRecord](weekly.UsedPercent != 0, ReasonWeeklyUsed),
			when[models.WeeklyReminderRecord](!weekly.AssumedReset && now.Before(weekly.ResetsAt), ReasonNotReset),
			func(now time.Time, _ models.WeeklyReminderRecord) BlockReason {
				if now.Before(atHour(now, p.StartHour)) || now.After(atHour(now, p.EndHour)) {
					return ReasonOutsideWindow
				}
				return ""
			},
			cooldown(func(r models.WeeklyReminderRecord) *time.Time { return r.LastNotified },
				p.Interval, ReasonTooSoon),
		},
		Next: func(now time.Time, _ models.WeeklyReminderRecord) models.WeeklyReminderRecord {
			return models.WeeklyReminderRecord{LastNotified: models.TimePtr(now)}
		},
	}
	return gate.Decide(now, record)
}
