package groupstore

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"grouprank/domain/group"
	"grouprank/internal"
	"grouprank/internal/errors"
	"grouprank/internal/random"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(dir string, chunkSize int) ([]group.Group, group.Source) {
	args := m.Called(dir, chunkSize)
	return args.Get(0).([]group.Group), args.Get(1).(group.Source)
}

type staticLoader struct {
	groups []group.Group
}

func (l *staticLoader) Load(dir string, chunkSize int) ([]group.Group, group.Source) {
	return l.groups, group.SourceManifest
}

func makeGroups(n, imagesPerGroup int) []group.Group {
	groups := make([]group.Group, n)
	for i := range groups {
		images := make([]string, imagesPerGroup)
		for j := range images {
			images[j] = fmt.Sprintf("g%d/img%d.jpg", i, j)
		}
		groups[i] = group.Group{ID: i, Instruction: fmt.Sprintf("instruction %d", i), Images: images}
	}
	return groups
}

func newStore(groups []group.Group) (*Store, *staticLoader) {
	loader := &staticLoader{groups: groups}
	store := New(loader, random.New(), internal.NewNopLogger(), Options{DefaultDir: "images", ChunkSize: 6})
	return store, loader
}

func TestPresentationSequenceIsPermutation(t *testing.T) {
	store, _ := newStore(makeGroups(25, 3))
	require.Equal(t, 25, store.Initialize("dir", 6))

	snap := store.Snapshot()
	sorted := append([]int(nil), snap.Sequence...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v)
	}

	for i, g := range snap.Groups {
		assert.Equal(t, i, g.ID, "group order must follow load order")
	}
}

func TestInitializeShufflesImagesWithoutLosingAny(t *testing.T) {
	source := makeGroups(4, 8)
	store, _ := newStore(source)
	store.Initialize("dir", 6)

	snap := store.Snapshot()
	for i, g := range snap.Groups {
		assert.ElementsMatch(t, source[i].Images, g.Images)
	}
	// The loader's slices are not touched.
	assert.Equal(t, "g0/img0.jpg", source[0].Images[0])
	assert.Equal(t, "g0/img7.jpg", source[0].Images[7])
}

func TestAdvanceUntilExhaustedThenReset(t *testing.T) {
	const n = 5
	store, _ := newStore(makeGroups(n, 2))
	store.Initialize("dir", 6)

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		entry, err := store.AdvanceAndGet()
		require.NoError(t, err)
		assert.Equal(t, i, entry.PresentationIndex)
		assert.Equal(t, n, entry.Total)
		seen[entry.OrigID] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, group.Count{TotalGroups: n, CurrentIndex: n}, store.Count())

	_, err := store.AdvanceAndGet()
	require.Error(t, err)
	assert.Equal(t, errors.CodeExhausted, errors.GetCode(err))
	assert.Equal(t, "No more groups", err.Error())

	store.ResetCursor()
	assert.Equal(t, 0, store.Count().CurrentIndex)
	for i := 0; i < n; i++ {
		_, err := store.AdvanceAndGet()
		require.NoError(t, err)
	}
}

func TestGetByPresentationIndex(t *testing.T) {
	store, _ := newStore(makeGroups(3, 4))
	store.Initialize("dir", 6)
	snap := store.Snapshot()

	for i := 0; i < 3; i++ {
		first, err := store.GetByPresentationIndex(i)
		require.NoError(t, err)
		second, err := store.GetByPresentationIndex(i)
		require.NoError(t, err)

		assert.Equal(t, snap.Sequence[i], first.OrigID)
		assert.Equal(t, first.OrigID, second.OrigID)
		assert.Equal(t, first.Group.Instruction, second.Group.Instruction)
		assert.Equal(t, i, first.PresentationIndex)
	}

	for _, bad := range []int{-1, 3, 100} {
		_, err := store.GetByPresentationIndex(bad)
		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	}

	// Reads do not move the cursor.
	assert.Equal(t, 0, store.Count().CurrentIndex)
}

func TestUnloadedStore(t *testing.T) {
	store, _ := newStore(nil)

	assert.Equal(t, group.Count{}, store.Count())
	assert.Equal(t, "", store.Directory())
	_, err := store.GetByPresentationIndex(0)
	assert.Error(t, err)
	_, err = store.AdvanceAndGet()
	assert.Equal(t, errors.CodeExhausted, errors.GetCode(err))
	store.ResetCursor()
	assert.Empty(t, store.Snapshot().Groups)
}

func TestZeroGroupsLoad(t *testing.T) {
	store, _ := newStore([]group.Group{})
	assert.Equal(t, 0, store.Initialize("empty", 6))

	assert.Equal(t, group.Count{}, store.Count())
	_, err := store.AdvanceAndGet()
	assert.Equal(t, errors.CodeExhausted, errors.GetCode(err))
}

func TestInitializeResolvesDirectoryAndChunkSize(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", "images", 6).Return(makeGroups(1, 1), group.SourceAutoChunk).Once()
	loader.On("Load", "other", 3).Return(makeGroups(2, 1), group.SourceAutoChunk).Once()
	loader.On("Load", "other", 6).Return(makeGroups(2, 1), group.SourceAutoChunk).Once()

	store := New(loader, random.New(), internal.NewNopLogger(), Options{DefaultDir: "images", ChunkSize: 6})

	assert.Equal(t, 1, store.Initialize("", 0))
	assert.Equal(t, "images", store.Directory())

	assert.Equal(t, 2, store.Initialize("other", 3))
	assert.Equal(t, "other", store.Directory())

	assert.Equal(t, 2, store.Reload())
	loader.AssertExpectations(t)
}

func TestInitializeResetsCursorAndFiresHooks(t *testing.T) {
	store, loader := newStore(makeGroups(3, 1))
	var calls []string
	store.OnReload(func(dir string, total int) {
		calls = append(calls, fmt.Sprintf("%s:%d", dir, total))
	})

	store.Initialize("a", 6)
	_, _ = store.AdvanceAndGet()
	_, _ = store.AdvanceAndGet()
	assert.Equal(t, 2, store.Count().CurrentIndex)

	loader.groups = makeGroups(7, 1)
	store.Initialize("b", 6)

	assert.Equal(t, group.Count{TotalGroups: 7, CurrentIndex: 0}, store.Count())
	assert.Equal(t, []string{"a:3", "b:7"}, calls)
}

func TestConcurrentAdvanceHandsOutEachIndexOnce(t *testing.T) {
	const n = 200
	store, _ := newStore(makeGroups(n, 2))
	store.Initialize("dir", 6)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indices []int
		misses  int
	)
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				entry, err := store.AdvanceAndGet()
				mu.Lock()
				if err != nil {
					misses++
					mu.Unlock()
					return
				}
				indices = append(indices, entry.PresentationIndex)
				mu.Unlock()
			}
		}()
	}

	// Readers racing with navigation must never see torn state.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c := store.Count()
			assert.LessOrEqual(t, c.CurrentIndex, c.TotalGroups)
		}
	}()
	wg.Wait()

	sort.Ints(indices)
	require.Len(t, indices, n)
	for i, idx := range indices {
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, 16, misses)
}

func TestHasImage(t *testing.T) {
	groups := makeGroups(2, 2)
	groups[1].ReferenceImage = "/shared/ref.jpg"
	store, _ := newStore(groups)
	assert.False(t, store.HasImage("g0/img0.jpg"))

	store.Initialize("dir", 6)
	assert.True(t, store.HasImage("g0/img0.jpg"))
	assert.True(t, store.HasImage("g1/./img1.jpg"))
	assert.True(t, store.HasImage("/shared/ref.jpg"))
	assert.False(t, store.HasImage("g2/img0.jpg"))
	assert.False(t, store.HasImage(""))
}
