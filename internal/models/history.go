package models

import "time"

// SnapshotRecord is one quota observation as stored in the history database.
type SnapshotRecord struct {
	CapturedAt       time.Time
	FiveHourResetsAt time.Time
	WeeklyResetsAt   time.Time
	Email            string
	Source           SnapshotSource
	ID               int64
	FiveHourUsed     float64
	WeeklyUsed       float64
	AssumedReset     bool
}

// NewSnapshotRecord flattens a snapshot for storage.
func NewSnapshotRecord(email string, s QuotaSnapshot) SnapshotRecord {
	return SnapshotRecord{
		Email:            email,
		CapturedAt:       s.CapturedAt,
		Source:           s.Source,
		FiveHourUsed:     s.FiveHour.UsedPercent,
		WeeklyUsed:       s.Weekly.UsedPercent,
		FiveHourResetsAt: s.FiveHour.ResetsAt,
		WeeklyResetsAt:   s.Weekly.ResetsAt,
		AssumedReset:     s.FiveHour.AssumedReset || s.Weekly.AssumedReset,
	}
}

// AutomationRun is an audit row for one attempted automated action.
type AutomationRun struct {
	Timestamp time.Time
	Email     string
	Kind      string
	Outcome   string
	Detail    string
	ID        int64
}
