// Package sqlstore mirrors submissions into PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"grouprank/domain/core"
	"grouprank/domain/submission"
	apperrors "grouprank/internal/errors"
	"grouprank/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Mirror implements ports.SubmissionMirror
type Mirror struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the database and creates the schema.
func Open(ctx context.Context, driver, url string) (*Mirror, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driver))
	}

	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, apperrors.IOFailure("failed to connect to database", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewMirror(db), nil
}

// NewMirror wraps an already migrated connection.
func NewMirror(db *sqlx.DB) *Mirror {
	return &Mirror{db: db, now: time.Now}
}

type rowModel struct {
	Directory    string    `db:"directory"`
	SubmittedAt  string    `db:"submitted_at"`
	GroupID      string    `db:"group_id"`
	Instruction  string    `db:"instruction"`
	UserID       string    `db:"user_id"`
	SortedImages string    `db:"sorted_images"`
	CreatedAt    time.Time `db:"created_at"`
}

type batchModel struct {
	BatchID    string    `db:"batch_id"`
	Directory  string    `db:"directory"`
	UserID     string    `db:"user_id"`
	GroupKey   string    `db:"group_key"`
	Position   int       `db:"position"`
	RecordJSON string    `db:"record_json"`
	CreatedAt  time.Time `db:"created_at"`
}

// RecordRow inserts one single-group submission.
func (m *Mirror) RecordRow(ctx context.Context, directory string, row submission.FlatRow) error {
	images, err := json.Marshal(nonNil(row.SortedImages))
	if err != nil {
		return err
	}

	_, err = m.db.NamedExecContext(ctx, `
		INSERT INTO submission_rows (directory, submitted_at, group_id, instruction, user_id, sorted_images, created_at)
		VALUES (:directory, :submitted_at, :group_id, :instruction, :user_id, :sorted_images, :created_at)
	`, rowModel{
		Directory:    directory,
		SubmittedAt:  row.Timestamp,
		GroupID:      row.GroupID,
		Instruction:  row.Instruction,
		UserID:       row.UserID,
		SortedImages: string(images),
		CreatedAt:    m.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert submission row: %w", err)
	}
	return nil
}

// RecordBatch inserts every record of a submit_all batch in one transaction.
// Replaying a batch id that was already stored is a no-op.
func (m *Mirror) RecordBatch(ctx context.Context, directory string, batchID core.BatchID, entry submission.UserEntry) error {
	models, err := m.batchModels(directory, batchID, entry)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, model := range models {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO batch_records (batch_id, directory, user_id, group_key, position, record_json, created_at)
			VALUES (:batch_id, :directory, :user_id, :group_key, :position, :record_json, :created_at)
		`, model)
		if err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return fmt.Errorf("insert batch record %s/%d: %w", model.GroupKey, model.Position, err)
		}
	}
	return tx.Commit()
}

func (m *Mirror) batchModels(directory string, batchID core.BatchID, entry submission.UserEntry) ([]batchModel, error) {
	createdAt := m.now().UTC()
	var models []batchModel
	for key, records := range entry.LabeledData {
		for i, rec := range records {
			encoded, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("encode record %s/%d: %w", key, i, err)
			}
			models = append(models, batchModel{
				BatchID:    string(batchID),
				Directory:  directory,
				UserID:     entry.UserID,
				GroupKey:   key,
				Position:   i,
				RecordJSON: string(encoded),
				CreatedAt:  createdAt,
			})
		}
	}
	return models, nil
}

// CountRows returns how many single submissions were mirrored for userID.
func (m *Mirror) CountRows(ctx context.Context, userID string) (int, error) {
	var n int
	err := m.db.GetContext(ctx, &n, m.db.Rebind(`SELECT COUNT(*) FROM submission_rows WHERE user_id = ?`), userID)
	return n, err
}

// BatchRecords returns the records stored for one batch keyed by group.
func (m *Mirror) BatchRecords(ctx context.Context, batchID core.BatchID) (map[string][]submission.Record, error) {
	var models []batchModel
	err := m.db.SelectContext(ctx, &models, m.db.Rebind(`
		SELECT batch_id, directory, user_id, group_key, position, record_json
		FROM batch_records
		WHERE batch_id = ?
		ORDER BY group_key, position
	`), string(batchID))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]submission.Record)
	for _, model := range models {
		var rec submission.Record
		if err := json.Unmarshal([]byte(model.RecordJSON), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s/%d: %w", model.GroupKey, model.Position, err)
		}
		out[model.GroupKey] = append(out[model.GroupKey], rec)
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (m *Mirror) Close() error {
	return m.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nonNil(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
