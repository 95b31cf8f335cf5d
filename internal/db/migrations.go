package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version stores how many ran.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS quota_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		source TEXT NOT NULL,
		five_hour_used REAL NOT NULL DEFAULT 0,
		weekly_used REAL NOT NULL DEFAULT 0,
		five_hour_resets_at TEXT,
		weekly_resets_at TEXT,
		assumed_reset INTEGER NOT NULL DEFAULT 0,
		UNIQUE(email, captured_at)
	);
	CREATE INDEX IF NOT EXISTS idx_quota_snapshots_email_time ON quota_snapshots(email, captured_at);
	`,
	`
	CREATE TABLE IF NOT EXISTS automation_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_automation_runs_timestamp ON automation_runs(timestamp);
	`,
}

// migrate brings the schema up to date.
func (db *DB) migrate() error {
	ctx := context.Background()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version)
	return version, err
}
