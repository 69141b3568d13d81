package ports

// Shuffler produces uniformly random permutations. Implementations must be
// safe for concurrent use; every call draws fresh randomness.
type Shuffler interface {
	// Shuffle permutes n elements through swap (Fisher-Yates).
	Shuffle(n int, swap func(i, j int))

	// Perm returns a random permutation of [0, n).
	Perm(n int) []int
}
