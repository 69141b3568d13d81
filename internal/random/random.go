// Package random provides the concurrency-safe Shuffler used for group
// presentation order and per-request image order.
package random

import (
	"math/rand/v2"
	"sync"
)

// Source is a mutex-guarded PCG generator.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded from the runtime's entropy.
func New() *Source {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a deterministic Source. Tests use it to pin orderings.
func NewSeeded(seed1, seed2 uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Shuffle implements ports.Shuffler
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	if n < 2 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// Perm implements ports.Shuffler
func (s *Source) Perm(n int) []int {
	if n <= 0 {
		return []int{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}
