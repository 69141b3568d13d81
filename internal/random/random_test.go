package random

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermIsPermutation(t *testing.T) {
	src := New()
	for _, n := range []int{0, 1, 2, 17, 100} {
		perm := src.Perm(n)
		sorted := append([]int(nil), perm...)
		sort.Ints(sorted)
		for i := range sorted {
			assert.Equal(t, i, sorted[i])
		}
		assert.Len(t, perm, n)
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(1, 2).Perm(20)
	b := NewSeeded(1, 2).Perm(20)
	assert.Equal(t, a, b)
}

func TestShuffleConcurrentUse(t *testing.T) {
	src := New()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items := []int{1, 2, 3, 4, 5, 6}
			for i := 0; i < 200; i++ {
				src.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
			}
			sort.Ints(items)
			assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, items)
		}()
	}
	wg.Wait()
}
