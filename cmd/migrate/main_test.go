package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"grouprank/adapters/sqlstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsJSON = `{
  "user_ids": ["alice"],
  "all_data": [{"user_id": "alice", "labeled_data": {"0": [{"group_id": 0, "instruction": "x", "instruction_cn": "", "sorted_images": ["a.jpg"]}]}}]
}`

func TestBackfill(t *testing.T) {
	root := t.TempDir()
	labeled := filepath.Join(root, "set1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "set2"), 0o755))
	require.NoError(t, os.MkdirAll(labeled, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(labeled, "results.json"), []byte(resultsJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(labeled, "results.csv"),
		[]byte("timestamp,group_id,instruction,user_id,sorted_images_joined\nt,0,x,alice,a.jpg\n"), 0o644))

	dirs, err := findResultDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{labeled}, dirs)

	ctx := context.Background()
	mirror, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	defer mirror.Close()

	rows, batches, err := backfillDir(ctx, mirror, labeled)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, batches)

	// Batches are keyed by file and position, so a second run does not duplicate them.
	_, _, err = backfillDir(ctx, mirror, labeled)
	require.NoError(t, err)

	count, err := mirror.CountRows(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
