package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"grouprank/domain/group"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGroupsCommand(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.png", i)), []byte("png"), 0o644))
	}

	out, err := runCLI(t, "groups", dir, "--chunk-size", "2")
	require.NoError(t, err)

	var parsed groupsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, group.SourceAutoChunk, parsed.Source)
	assert.Equal(t, 3, parsed.Total)
	assert.Len(t, parsed.Groups[2].Images, 1)
}

func TestGroupsCommandRequiresDirectory(t *testing.T) {
	_, err := runCLI(t, "groups")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	csv := "timestamp,group_id,instruction,user_id,sorted_images_joined\n2024-01-01T00:00:00.000000,0,Rank,alice,a.jpg|b.jpg\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.csv"), []byte(csv), 0o644))
	out := filepath.Join(t.TempDir(), "export.xlsx")

	stdout, err := runCLI(t, "export", dir, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 1 submissions and 0 batches")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Submissions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[1][3])
}

func TestExportCommandWithoutResults(t *testing.T) {
	_, err := runCLI(t, "export", t.TempDir(), "--out", filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
