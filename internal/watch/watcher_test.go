package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"grouprank/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWatcher(t *testing.T, reloads *int32) *ManifestWatcher {
	t.Helper()
	w, err := New(func() { atomic.AddInt32(reloads, 1) }, 40*time.Millisecond, internal.NewNopLogger())
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { w.Close() })
	return w
}

func TestManifestWriteTriggersOneReload(t *testing.T) {
	var reloads int32
	dir := t.TempDir()
	w := newTestWatcher(t, &reloads)
	require.NoError(t, w.Watch(dir))

	manifest := filepath.Join(dir, "groups.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(manifest, []byte(`[]`), 0o644))
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&reloads) >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reloads))
}

func TestNonManifestFilesAreIgnored(t *testing.T) {
	var reloads int32
	dir := t.TempDir()
	w := newTestWatcher(t, &reloads)
	require.NoError(t, w.Watch(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.json"), []byte("{}"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&reloads))
}

func TestWatchRetargets(t *testing.T) {
	var reloads int32
	first, second := t.TempDir(), t.TempDir()
	w := newTestWatcher(t, &reloads)

	require.NoError(t, w.Watch(first))
	require.NoError(t, w.Watch(second))
	abs, err := filepath.Abs(second)
	require.NoError(t, err)
	assert.Equal(t, abs, w.Directory())

	require.NoError(t, os.WriteFile(filepath.Join(first, "groups.yaml"), []byte("[]"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&reloads))

	require.NoError(t, os.WriteFile(filepath.Join(second, "groups.yaml"), []byte("[]"), 0o644))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&reloads) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchMissingDirectory(t *testing.T) {
	var reloads int32
	w := newTestWatcher(t, &reloads)

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
	assert.Empty(t, w.Directory())
}

func TestCloseWithoutStart(t *testing.T) {
	w, err := New(func() {}, 0, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
