package usage

import (
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// Thresholds are the remaining-percent cut points for alerts.
// An account whose weekly remaining is at or below Critical is depleted.
type Thresholds struct {
	Critical models.Percent
	Warning  models.Percent
}

// DefaultThresholds returns critical 5% and warning 15%.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Critical: models.MustPercent(5),
		Warning:  models.MustPercent(15),
	}
}

// Depleted is the cut point at or below which an account is unusable.
func (t Thresholds) Depleted() models.Percent {
	return t.Critical
}

// Level maps a remaining percentage to an alert level.
func (t Thresholds) Level(remaining models.Percent) models.ThresholdLevel {
	switch {
	case remaining.AtMost(t.Critical):
		return models.LevelCritical
	case remaining.AtMost(t.Warning):
		return models.LevelWarning
	default:
		return models.LevelNormal
	}
}

// StatusKind classifies an account's weekly quota.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusAvailable
	StatusDepleted
)

func (k StatusKind) String() string {
	switch k {
	case StatusAvailable:
		return "available"
	case StatusDepleted:
		return "depleted"
	default:
		return "unknown"
	}
}

// WeeklyState is the evaluated weekly window of an account.
type WeeklyState struct {
	ResetsAt  time.Time
	Remaining models.Percent
	Used      models.Percent
}

// Status is the result of Evaluate. Weekly is only meaningful when Kind is
// not StatusUnknown.
type Status struct {
	Weekly WeeklyState
	Kind   StatusKind
}

// Evaluate classifies an account. Accounts without a snapshot, or with an
// out-of-range weekly measurement, are unknown.
func (t Thresholds) Evaluate(account *models.Account) Status {
	if account == nil || account.LastSnapshot == nil {
		return Status{Kind: StatusUnknown}
	}
	weekly := account.LastSnapshot.Weekly
	used, err := models.NewPercent(weekly.UsedPercent)
	if err != nil {
		return Status{Kind: StatusUnknown}
	}
	remaining, ok := models.RemainingFromUsed(weekly.UsedPercent)
	if !ok {
		return Status{Kind: StatusUnknown}
	}

	state := WeeklyState{ResetsAt: weekly.ResetsAt, Remaining: remaining, Used: used}
	if remaining.AtMost(t.Depleted()) {
		return Status{Kind: StatusDepleted, Weekly: state}
	}
	return Status{Kind: StatusAvailable, Weekly: state}
}

// WeeklyRemaining returns the account's weekly remaining percentage.
func WeeklyRemaining(account *models.Account) (models.Percent, bool) {
	return Remaining(account, models.WindowWeekly)
}

// Remaining returns the remaining percentage of one window.
func Remaining(account *models.Account, kind models.WindowKind) (models.Percent, bool) {
	if account == nil || account.LastSnapshot == nil {
		return models.Percent{}, false
	}
	return models.RemainingFromUsed(account.LastSnapshot.Window(kind).UsedPercent)
}
