package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"grouprank/domain/group"
	"grouprank/internal"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	return filepath.ToSlash(filepath.Clean(path))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestLoader() *Loader {
	return New(internal.NewNopLogger())
}

func TestAutoChunkTwelveImages(t *testing.T) {
	dir := t.TempDir()
	var expected []string
	for i := 0; i < 12; i++ {
		expected = append(expected, touch(t, filepath.Join(dir, fmt.Sprintf("img_%02d.jpg", i))))
	}

	groups, source := newTestLoader().Load(dir, 6)

	assert.Equal(t, group.SourceAutoChunk, source)
	require.Len(t, groups, 2)
	assert.Equal(t, 0, groups[0].ID)
	assert.Equal(t, 1, groups[1].ID)
	assert.Len(t, groups[0].Images, 6)
	assert.Len(t, groups[1].Images, 6)
	assert.Equal(t, PlaceholderInstruction(1), groups[1].Instruction)

	var all []string
	for _, g := range groups {
		all = append(all, g.Images...)
	}
	if diff := cmp.Diff(expected, all); diff != "" {
		t.Errorf("concatenated images mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoChunkPartialLastGroupAndFilters(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.PNG"))
	touch(t, filepath.Join(dir, "nested", "deeper", "b.webp"))
	touch(t, filepath.Join(dir, "c.heic"))
	touch(t, filepath.Join(dir, "d.JFIF"))
	touch(t, filepath.Join(dir, "e.gif"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "results.csv"))

	groups, _ := newTestLoader().Load(dir, 2)

	require.Len(t, groups, 3)
	assert.Len(t, groups[2].Images, 1)

	total := 0
	for _, g := range groups {
		total += len(g.Images)
		for _, img := range g.Images {
			assert.NotContains(t, img, "\\")
		}
	}
	assert.Equal(t, 5, total)
}

func TestAutoChunkDefaultChunkSize(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("%d.jpeg", i)))
	}

	groups, _ := newTestLoader().Load(dir, 0)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Images, DefaultChunkSize)
}

func TestEmptyAndMissingDirectory(t *testing.T) {
	groups, source := newTestLoader().Load(t.TempDir(), 6)
	assert.Empty(t, groups)
	assert.Equal(t, group.SourceEmpty, source)

	groups, _ = newTestLoader().Load(filepath.Join(t.TempDir(), "does-not-exist"), 6)
	assert.Empty(t, groups)
}

func TestManifestResolvesAndFilters(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "set1", "a.jpg"))
	b := touch(t, filepath.Join(dir, "set1", "b.jpg"))
	ref := touch(t, filepath.Join(dir, "ref.png"))
	abs := touch(t, filepath.Join(t.TempDir(), "elsewhere.jpg"))

	writeFile(t, filepath.Join(dir, "groups.json"), fmt.Sprintf(`[
		{"instruction": "Rank by sharpness", "instruction_cn": "按清晰度排序",
		 "images": ["set1/a.jpg", "./set1/../set1/b.jpg", "set1/missing.jpg", %q],
		 "reference_image": "ref.png"},
		{"instruction": "Nothing survives", "images": ["gone.jpg"], "reference_image": "gone.png"},
		{"images": []}
	]`, abs))

	groups, source := newTestLoader().Load(dir, 6)

	assert.Equal(t, group.SourceManifest, source)
	expected := []group.Group{
		{ID: 0, Instruction: "Rank by sharpness", InstructionCN: "按清晰度排序", Images: []string{a, b, abs}, ReferenceImage: ref},
		{ID: 1, Instruction: "Nothing survives", Images: []string{}, ReferenceImage: ""},
		{ID: 2, Images: []string{}},
	}
	if diff := cmp.Diff(expected, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLManifest(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.jpg"))
	writeFile(t, filepath.Join(dir, "groups.yaml"), `
- instruction: "Pick the brightest"
  images:
    - a.jpg
    - b.jpg
`)

	groups, source := newTestLoader().Load(dir, 6)

	assert.Equal(t, group.SourceYAMLManifest, source)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{a}, groups[0].Images)
	assert.Equal(t, "Pick the brightest", groups[0].Instruction)
}

func TestMalformedManifestFallsBackToAutoChunk(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("%d.jpg", i)))
	}
	writeFile(t, filepath.Join(dir, "groups.json"), `[{"instruction": "broken",`)

	var groups []group.Group
	var source group.Source
	require.NotPanics(t, func() {
		groups, source = newTestLoader().Load(dir, 2)
	})

	assert.Equal(t, group.SourceAutoChunk, source)
	assert.Len(t, groups, 2)
}

func TestEmptyManifestFallsBackToAutoChunk(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "x.jpg"))
	writeFile(t, filepath.Join(dir, "groups.json"), `[]`)

	groups, source := newTestLoader().Load(dir, 6)

	assert.Equal(t, group.SourceAutoChunk, source)
	assert.Len(t, groups, 1)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "base/dir/img.jpg", ResolvePath("base/dir", "img.jpg"))
	assert.Equal(t, "base/img.jpg", ResolvePath("base/dir", "../img.jpg"))
	assert.Equal(t, "/abs/img.jpg", ResolvePath("base/dir", "/abs/./img.jpg"))
}
