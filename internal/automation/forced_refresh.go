package automation

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/usage"
)

// ForcedRefreshPolicy throttles forced refreshes.
type ForcedRefreshPolicy struct {
	MinimumInterval time.Duration
	FailureCooldown time.Duration
}

// DefaultForcedRefreshPolicy allows one attempt per 12h and backs off 24h after a failure.
func DefaultForcedRefreshPolicy() ForcedRefreshPolicy {
	return ForcedRefreshPolicy{
		MinimumInterval: 12 * time.Hour,
		FailureCooldown: 24 * time.Hour,
	}
}

// ForcedRefreshInput is the context a forced refresh is evaluated in.
// WeeklyRemaining is nil when the account has no usable data.
type ForcedRefreshInput struct {
	WeeklyRemaining *models.Percent
	HasAuth         bool
}

// ForcedRefreshEvaluator gates forced refreshes of stale usage data.
type ForcedRefreshEvaluator struct {
	Thresholds usage.Thresholds
	Policy     ForcedRefreshPolicy
}

// Decide reports whether a forced refresh may run now. An allowed record
// has LastAttempt set to now.
func (e ForcedRefreshEvaluator) Decide(now time.Time, record models.ForcedRefreshRecord, in ForcedRefreshInput) Decision[models.ForcedRefreshRecord] {
	depleted := in.WeeklyRemaining != nil && in.WeeklyRemaining.AtMost(e.Thresholds.Depleted())

	gate := Gate[models.ForcedRefreshRecord]{
		Checks: []Check[models.ForcedRefreshRecord]{
			when[models.ForcedRefreshRecord](!in.HasAuth, ReasonNoAuth),
			when[models.ForcedRefreshRecord](depleted, ReasonWeeklyDepleted),
			cooldown(func(r models.ForcedRefreshRecord) *time.Time { return r.LastAttempt },
				e.Policy.MinimumInterval, ReasonTooSoon),
			cooldown(func(r models.ForcedRefreshRecord) *time.Time { return r.LastFailure },
				e.Policy.FailureCooldown, ReasonRecentFailure),
		},
		Next: func(now time.Time, r models.ForcedRefreshRecord) models.ForcedRefreshRecord {
			r.LastAttempt = models.TimePtr(now)
			return r
		},
	}
	return gate.Decide(now, record)
}

// MarkSuccess records a successful attempt.
func MarkSuccess(record models.ForcedRefreshRecord, at time.Time) models.ForcedRefreshRecord {
	record.LastSuccess = models.TimePtr(at)
	return record
}

// MarkFailure records a failed attempt.
func MarkFailure(record models.ForcedRefreshRecord, at time.Time) models.ForcedRefreshRecord {
	record.LastFailure = models.TimePtr(at)
	return record
}
