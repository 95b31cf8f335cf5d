package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
)

// InsertSnapshot records a quota observation. A second row for the same
// email and capture time is ignored.
func (db *DB) InsertSnapshot(rec *models.SnapshotRecord) error {
	query := `
		INSERT OR IGNORE INTO quota_snapshots (
			email, captured_at, source, five_hour_used, weekly_used,
			five_hour_resets_at, weekly_resets_at, assumed_reset
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	captured := rec.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		rec.Email,
		formatTime(captured),
		string(rec.Source),
		rec.FiveHourUsed,
		rec.WeeklyUsed,
		nullTime(rec.FiveHourResetsAt),
		nullTime(rec.WeeklyResetsAt),
		rec.AssumedReset,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quota snapshot: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		if id, err := result.LastInsertId(); err == nil {
			rec.ID = id
		}
	}
	return nil
}

// RecentSnapshots returns up to limit snapshots for email, newest first.
func (db *DB) RecentSnapshots(email string, limit int) ([]models.SnapshotRecord, error) {
	query := `
		SELECT id, email, captured_at, source, five_hour_used, weekly_used,
			   five_hour_resets_at, weekly_resets_at, assumed_reset
		FROM quota_snapshots
		WHERE email = ?
		ORDER BY captured_at DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var records []models.SnapshotRecord
	for rows.Next() {
		var (
			rec                      models.SnapshotRecord
			captured, source         string
			fiveResets, weeklyResets sql.NullString
		)
		err := rows.Scan(
			&rec.ID,
			&rec.Email,
			&captured,
			&source,
			&rec.FiveHourUsed,
			&rec.WeeklyUsed,
			&fiveResets,
			&weeklyResets,
			&rec.AssumedReset,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		rec.Source = models.SnapshotSource(source)
		rec.CapturedAt = parseTime(captured)
		rec.FiveHourResetsAt = parseTime(fiveResets.String)
		rec.WeeklyResetsAt = parseTime(weeklyResets.String)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// InsertAutomationRun records an automation attempt.
func (db *DB) InsertAutomationRun(run *models.AutomationRun) error {
	query := `
		INSERT INTO automation_runs (email, kind, outcome, detail, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	timestamp := run.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		run.Email,
		run.Kind,
		run.Outcome,
		nullString(run.Detail),
		formatTime(timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert automation run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	}

	return nil
}

// RecordRun stores one automation attempt.
func (db *DB) RecordRun(email, kind, outcome, detail string, at time.Time) error {
	return db.InsertAutomationRun(&models.AutomationRun{
		Email:     email,
		Kind:      kind,
		Outcome:   outcome,
		Detail:    detail,
		Timestamp: at,
	})
}

// RecentAutomationRuns returns up to limit runs, newest first.
func (db *DB) RecentAutomationRuns(limit int) ([]models.AutomationRun, error) {
	query := `
		SELECT id, email, kind, outcome, detail, timestamp
		FROM automation_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.AutomationRun
	for rows.Next() {
		var (
			run       models.AutomationRun
			detail    sql.NullString
			timestamp string
		)
		if err := rows.Scan(&run.ID, &run.Email, &run.Kind, &run.Outcome, &detail, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan automation run: %w", err)
		}
		run.Detail = detail.String
		run.Timestamp = parseTime(timestamp)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Prune deletes snapshots and runs older than cutoff and returns the number
// of rows removed.
func (db *DB) Prune(cutoff time.Time) (int64, error) {
	ctx := context.Background()
	bound := formatTime(cutoff)

	var total int64
	for _, query := range []string{
		"DELETE FROM quota_snapshots WHERE captured_at < ?",
		"DELETE FROM automation_runs WHERE timestamp < ?",
	} {
		result, err := db.ExecContext(ctx, query, bound)
		if err != nil {
			return total, fmt.Errorf("failed to prune history: %w", err)
		}
		n, _ := result.RowsAffected()
		total += n
	}
	return total, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		logger.Debug("unparseable timestamp in history", "value", s)
		return time.Time{}
	}
	return t
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
