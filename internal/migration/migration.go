package migration

import (
	"context"

	"grouprank/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the submission mirror schema. Statements are
// written in the subset of SQL shared by PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSubmissionRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create submission_rows table")
	}

	if err := r.createBatchRecordsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create batch_records table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createSubmissionRowsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS submission_rows (
			directory TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			group_id TEXT NOT NULL,
			instruction TEXT NOT NULL,
			user_id TEXT NOT NULL,
			sorted_images TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createBatchRecordsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS batch_records (
			batch_id TEXT NOT NULL,
			directory TEXT NOT NULL,
			user_id TEXT NOT NULL,
			group_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			record_json TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (batch_id, group_key, position)
		)`

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_submission_rows_user ON submission_rows(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_rows_group ON submission_rows(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_records_user ON batch_records(user_id)`,
	}

	for _, query := range indexes {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
