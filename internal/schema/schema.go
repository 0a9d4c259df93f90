package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CurrentVersion is the schema version this binary expects. Version 1 is the
// legacy layout without the course status column; the migration to version 2
// adds it with DEFAULT 'approved' so rows created before the status workflow
// existed keep their old behavior.
const CurrentVersion = 2

var baseTables = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		major TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		entry_year TEXT NOT NULL DEFAULT '',
		total_units INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS professors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		department TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		username TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		course_code TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		professor TEXT NOT NULL,
		professor_id TEXT NOT NULL DEFAULT '',
		units INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		current_students INTEGER NOT NULL DEFAULT 0,
		schedule TEXT NOT NULL,
		department TEXT NOT NULL,
		classroom TEXT NOT NULL DEFAULT '',
		exam_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES students (id),
		course_code TEXT NOT NULL REFERENCES courses (course_code),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (student_id, course_code)
	)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY
	)`,
}

// Migrate creates the base tables when absent and applies the single
// migration path up to CurrentVersion. Safe to run against an existing
// database.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, ddl := range baseTables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	version, err := Version(ctx, db)
	if err != nil {
		return err
	}

	if version < 2 {
		if _, err := db.ExecContext(ctx,
			`ALTER TABLE courses ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'approved'`); err != nil {
			return fmt.Errorf("add status column: %w", err)
		}
		if err := setVersion(ctx, db, 2); err != nil {
			return err
		}
		logger.Info("schema migrated", zap.Int("from", version), zap.Int("to", 2))
	}

	return nil
}

// Version returns the recorded schema version, 0 when the database is new.
func Version(ctx context.Context, db *sqlx.DB) (int, error) {
	var version int
	err := db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func setVersion(ctx context.Context, db *sqlx.DB, version int) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, version); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// SupportsStatus reports whether the status workflow is usable. It is decided
// once at startup from the schema version, not by per-call introspection.
func SupportsStatus(version int) bool {
	return version >= 2
}
