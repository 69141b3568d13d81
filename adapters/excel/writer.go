// Package excel renders labeling results as an xlsx workbook.
package excel

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"grouprank/domain/submission"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SubmissionsSheet = "Submissions"
	RankingsSheet    = "Rankings"
)

// RankingsHeader is the header row of the Rankings sheet.
var RankingsHeader = []string{
	"batch", "user_id", "group_id", "instruction", "instruction_cn",
	"sorted_images_joined", "started_at", "submitted_at", "time_spent_seconds",
}

// Writer builds the export workbook from the flat log rows and the
// aggregated results store. Either source may be empty.
type Writer struct {
	rows    []submission.FlatRow
	results *submission.ResultsStore
}

// NewWriter creates a writer over a snapshot of both result files.
func NewWriter(rows []submission.FlatRow, results *submission.ResultsStore) *Writer {
	if results == nil {
		results = submission.NewResultsStore()
	}
	return &Writer{rows: rows, results: results}
}

// WriteTo renders the workbook into w.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SubmissionsSheet); err != nil {
		return 0, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RankingsSheet); err != nil {
		return 0, fmt.Errorf("failed to create %s sheet: %w", RankingsSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := w.writeSubmissions(f, headerStyle); err != nil {
		return 0, err
	}
	if err := w.writeRankings(f, headerStyle); err != nil {
		return 0, err
	}

	return f.WriteTo(out)
}

func (w *Writer) writeSubmissions(f *excelize.File, headerStyle int) error {
	if err := writeRow(f, SubmissionsSheet, 1, toCells(submission.FlatLogHeader)); err != nil {
		return err
	}
	if err := f.SetRowStyle(SubmissionsSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", SubmissionsSheet, err)
	}

	for i, row := range w.rows {
		if err := writeRow(f, SubmissionsSheet, i+2, toCells(row.Fields())); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeRankings(f *excelize.File, headerStyle int) error {
	if err := writeRow(f, RankingsSheet, 1, toCells(RankingsHeader)); err != nil {
		return err
	}
	if err := f.SetRowStyle(RankingsSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", RankingsSheet, err)
	}

	rowNum := 2
	for batch, entry := range w.results.AllData {
		keys := make([]string, 0, len(entry.LabeledData))
		for key := range entry.LabeledData {
			keys = append(keys, key)
		}
		sortGroupKeys(keys)

		for _, key := range keys {
			for _, rec := range entry.LabeledData[key] {
				cells := []interface{}{
					batch + 1,
					entry.UserID,
					key,
					rec.Instruction,
					rec.InstructionCN,
					strings.Join(rec.SortedImages, submission.ImageJoinSeparator),
					rec.StartedAt,
					rec.SubmittedAt,
					"",
				}
				if rec.TimeSpentSeconds != nil {
					cells[8] = *rec.TimeSpentSeconds
				}
				if err := writeRow(f, RankingsSheet, rowNum, cells); err != nil {
					return err
				}
				rowNum++
			}
		}
	}
	return nil
}

// sortGroupKeys orders numeric keys numerically, then everything else
// lexically.
func sortGroupKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
