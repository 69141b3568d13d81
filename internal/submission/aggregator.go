// Package submission persists rankings. Single submissions are appended to
// results.csv; batches are folded into results.json, which is rewritten in
// full under a dedicated lock.
package submission

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"grouprank/domain/core"
	domain "grouprank/domain/submission"
	"grouprank/internal"
	"grouprank/internal/errors"
	"grouprank/ports"
)

const (
	FlatLogName = "results.csv"
	ResultsName = "results.json"
)

// Aggregator is the sole writer of results.csv and results.json.
type Aggregator struct {
	dirs   ports.DirectorySource
	mirror ports.SubmissionMirror
	logger *internal.Logger
	now    func() time.Time

	csvMu     sync.Mutex
	resultsMu sync.Mutex
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithMirror forwards every write to m.
func WithMirror(m ports.SubmissionMirror) Option {
	return func(a *Aggregator) { a.mirror = m }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator writes into the directory reported by dirs.
func NewAggregator(dirs ports.DirectorySource, logger *internal.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &Aggregator{dirs: dirs, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OutputDir is the active directory, or "." before anything is loaded.
func (a *Aggregator) OutputDir() string {
	if dir := a.dirs.Directory(); dir != "" {
		return filepath.FromSlash(dir)
	}
	return "."
}

// FlatLogPath returns the results.csv path for the active directory.
func (a *Aggregator) FlatLogPath() string {
	return filepath.Join(a.OutputDir(), FlatLogName)
}

// ResultsPath returns the results.json path for the active directory.
func (a *Aggregator) ResultsPath() string {
	return filepath.Join(a.OutputDir(), ResultsName)
}

// SubmitGroup appends one row to results.csv.
func (a *Aggregator) SubmitGroup(ctx context.Context, single domain.Single) error {
	if single.GroupID.IsZero() {
		return errors.InvalidPayload("Invalid payload")
	}
	if single.SortedImages == nil {
		single.SortedImages = []string{}
	}
	userID := single.UserID
	if userID == "" {
		userID = core.AnonymousUser.String()
	}

	row := domain.FlatRow{
		Timestamp:    core.NewTimestamp(a.now()).String(),
		GroupID:      single.GroupID.String(),
		Instruction:  single.Instruction,
		UserID:       userID,
		SortedImages: single.SortedImages,
	}
	path := a.FlatLogPath()

	if err := a.appendRow(path, row); err != nil {
		a.logger.Error("[Submission] Failed to save results: %v", err)
		return errors.IOFailure(err.Error(), err)
	}
	a.logger.Info("[Submission] Saved group %s result by %s to %s", row.GroupID, userID, path)

	if a.mirror != nil {
		if err := a.mirror.RecordRow(ctx, a.OutputDir(), row); err != nil {
			a.logger.Warn("[Submission] Mirror failed for group %s: %v", row.GroupID, err)
		}
	}
	return nil
}

func (a *Aggregator) appendRow(path string, row domain.FlatRow) error {
	a.csvMu.Lock()
	defer a.csvMu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(domain.FlatLogHeader); err != nil {
			return err
		}
	}
	if err := w.Write(row.Fields()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// SubmitAll folds one batch into results.json and returns the file path.
func (a *Aggregator) SubmitAll(ctx context.Context, userID string, records []domain.Record) (string, error) {
	if userID == "" {
		userID = core.AnonymousUser.String()
	}
	path := a.ResultsPath()
	batchID := core.NewBatchID()

	entry, err := a.appendBatch(path, userID, records)
	if err != nil {
		a.logger.Error("[Submission] Failed to save batch for %s: %v", userID, err)
		return "", errors.IOFailure(err.Error(), err)
	}
	a.logger.Info("[Submission] Saved %d records in %d groups by %s to %s (batch=%s)",
		len(records), len(entry.LabeledData), userID, path, batchID)

	if a.mirror != nil {
		if err := a.mirror.RecordBatch(ctx, a.OutputDir(), batchID, entry); err != nil {
			a.logger.Warn("[Submission] Mirror failed for batch %s: %v", batchID, err)
		}
	}
	return filepath.ToSlash(path), nil
}

func (a *Aggregator) appendBatch(path, userID string, records []domain.Record) (domain.UserEntry, error) {
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()

	doc, err := readResultsDocument(path)
	if err != nil {
		if !errors.Is(err, errors.CodeFileNotFound) {
			// Last-writer-wins: the unreadable file is replaced by the new store.
			a.logger.Warn("[Submission] Starting %s from empty: %v", path, err)
		}
		doc = domain.NewResultsDocument()
	}

	entry, err := doc.Append(userID, records)
	if err != nil {
		return domain.UserEntry{}, fmt.Errorf("failed to encode batch: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return domain.UserEntry{}, fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return domain.UserEntry{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return entry, nil
}

// ReadResults returns the persisted results.json of the active directory.
func (a *Aggregator) ReadResults() (*domain.ResultsStore, error) {
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()
	return readResultsFile(a.ResultsPath())
}

// ReadFlatLog returns the data rows of results.csv, header excluded.
func (a *Aggregator) ReadFlatLog() ([]domain.FlatRow, error) {
	a.csvMu.Lock()
	defer a.csvMu.Unlock()
	return ReadFlatLogFile(a.FlatLogPath())
}

// ReadResultsFile reads and validates a results.json file.
func ReadResultsFile(path string) (*domain.ResultsStore, error) {
	return readResultsFile(path)
}

func readResultsFile(path string) (*domain.ResultsStore, error) {
	doc, err := readResultsDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Store(), nil
}

// readResultsDocument checks only that user_ids and all_data are arrays;
// entries are kept as stored.
func readResultsDocument(path string) (*domain.ResultsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound("No results file found")
		}
		return nil, errors.IOFailure(fmt.Sprintf("failed to read %s", path), err)
	}

	doc, err := domain.ParseResultsDocument(data)
	if err != nil {
		return nil, errors.ParseFailure(fmt.Sprintf("failed to parse %s", path), err)
	}
	return doc, nil
}

// ReadFlatLogFile parses a results.csv file.
func ReadFlatLogFile(path string) ([]domain.FlatRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound("No results file found")
		}
		return nil, errors.IOFailure(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows := []domain.FlatRow{}
	first := true
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseFailure(fmt.Sprintf("failed to parse %s", path), err)
		}
		if first {
			first = false
			if len(fields) > 0 && fields[0] == domain.FlatLogHeader[0] {
				continue
			}
		}
		rows = append(rows, domain.ParseFlatRow(fields))
	}
	return rows, nil
}
