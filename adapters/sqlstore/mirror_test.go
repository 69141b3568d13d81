package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"grouprank/domain/core"
	"grouprank/domain/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "root@/labels")
	assert.Error(t, err)
}

func TestRecordRow(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	row := submission.FlatRow{
		Timestamp:    "2024-05-01T10:00:00.000000",
		GroupID:      "0",
		Instruction:  "Rank by quality",
		UserID:       "alice",
		SortedImages: []string{"b.jpg", "a.jpg"},
	}
	require.NoError(t, m.RecordRow(ctx, "/data/images", row))
	require.NoError(t, m.RecordRow(ctx, "/data/images", row))

	n, err := m.CountRows(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.CountRows(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordBatch(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	records := []submission.Record{
		{GroupID: submission.NewGroupRef(1), Instruction: "first", SortedImages: []string{"x.png"}},
		{GroupID: submission.NewGroupRef(1), Instruction: "first again", SortedImages: []string{"y.png"}},
		{Instruction: "orphan", SortedImages: []string{}},
	}
	entry := submission.UserEntry{UserID: "alice", LabeledData: submission.GroupRecords(records)}
	batchID := core.NewBatchID()

	require.NoError(t, m.RecordBatch(ctx, "/data/images", batchID, entry))

	stored, err := m.BatchRecords(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, stored["1"], 2)
	assert.Equal(t, "first", stored["1"][0].Instruction)
	assert.Equal(t, "first again", stored["1"][1].Instruction)
	require.Len(t, stored[submission.UnknownGroupKey], 1)
	assert.True(t, stored[submission.UnknownGroupKey][0].GroupID.IsZero())

	// Replaying the same batch is ignored.
	require.NoError(t, m.RecordBatch(ctx, "/data/images", batchID, entry))
	stored, err = m.BatchRecords(ctx, batchID)
	require.NoError(t, err)
	assert.Len(t, stored["1"], 2)
}

func TestRecordEmptyBatch(t *testing.T) {
	m := openTestMirror(t)

	err := m.RecordBatch(context.Background(), "", core.NewBatchID(), submission.UserEntry{UserID: "alice"})
	assert.NoError(t, err)
}
