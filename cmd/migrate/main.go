package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"grouprank/adapters/sqlstore"
	"grouprank/domain/core"
	apperrors "grouprank/internal/errors"
	"grouprank/internal/submission"

	"github.com/google/uuid"
)

// batchNamespace derives stable batch ids so a re-run skips batches it
// already copied.
var batchNamespace = uuid.MustParse("8f7d2a52-53a4-4c33-9a56-6c4f2f1b0e10")

func main() {
	if len(os.Args) < 4 {
		log.Fatal("Usage: migrate <postgres|sqlite> <database_url> <images_root>")
	}

	driver, databaseURL, root := os.Args[1], os.Args[2], os.Args[3]
	log.Printf("Backfilling results under %s into %s database", root, driver)

	ctx := context.Background()
	mirror, err := sqlstore.Open(ctx, driver, databaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer mirror.Close()

	dirs, err := findResultDirs(root)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", root, err)
	}
	log.Printf("Found %d directories with results", len(dirs))

	rows, batches, skipped := 0, 0, 0
	for _, dir := range dirs {
		r, b, err := backfillDir(ctx, mirror, dir)
		rows += r
		batches += b
		if err != nil {
			log.Printf("Skipped part of %s: %v", dir, err)
			skipped++
		}
	}

	log.Printf("Backfill complete: %d rows, %d batches, %d directories with errors", rows, batches, skipped)
}

func findResultDirs(root string) ([]string, error) {
	seen := map[string]bool{}
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != submission.FlatLogName && name != submission.ResultsName {
			return nil
		}
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
		return nil
	})

	return dirs, err
}

func backfillDir(ctx context.Context, mirror *sqlstore.Mirror, dir string) (int, int, error) {
	rows, batches := 0, 0

	flat, err := submission.ReadFlatLogFile(filepath.Join(dir, submission.FlatLogName))
	if err != nil && !apperrors.Is(err, apperrors.CodeFileNotFound) {
		return rows, batches, err
	}
	for _, row := range flat {
		if err := mirror.RecordRow(ctx, dir, row); err != nil {
			return rows, batches, err
		}
		rows++
	}

	resultsPath := filepath.Join(dir, submission.ResultsName)
	results, err := submission.ReadResultsFile(resultsPath)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeFileNotFound) {
			return rows, batches, nil
		}
		return rows, batches, err
	}
	for i, entry := range results.AllData {
		abs, _ := filepath.Abs(resultsPath)
		batchID := core.BatchID(uuid.NewSHA1(batchNamespace, []byte(fmt.Sprintf("%s#%d", abs, i))).String())
		if err := mirror.RecordBatch(ctx, dir, batchID, entry); err != nil {
			return rows, batches, err
		}
		batches++
	}

	return rows, batches, nil
}
