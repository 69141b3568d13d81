// Package groupstore owns the loaded groups, the per-load presentation order
// and the "next group" cursor. All state lives in one struct behind one mutex
// so a reload can never be observed half-applied.
package groupstore

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"grouprank/domain/group"
	"grouprank/internal"
	"grouprank/internal/errors"
	"grouprank/ports"
)

// ReloadHook is called after every successful Initialize, outside the lock.
type ReloadHook func(dir string, total int)

// Options configures a Store
type Options struct {
	DefaultDir string
	ChunkSize  int
}

// Snapshot is a deep copy of the store state.
type Snapshot struct {
	Directory string
	Source    group.Source
	Groups    []group.Group
	Sequence  []int
	Cursor    int
	LoadedAt  time.Time
}

type state struct {
	directory string
	source    group.Source
	groups    []group.Group
	sequence  []int
	cursor    int
	loadedAt  time.Time
}

// Store is safe for concurrent use.
type Store struct {
	loader   ports.GroupLoader
	shuffler ports.Shuffler
	logger   *internal.Logger
	opts     Options

	// loadMu serializes Initialize calls; disk I/O happens under it, not under mu.
	loadMu sync.Mutex

	mu    sync.Mutex
	state *state
	hooks []ReloadHook
}

// New creates an unloaded store
func New(loader ports.GroupLoader, shuffler ports.Shuffler, logger *internal.Logger, opts Options) *Store {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Store{
		loader:   loader,
		shuffler: shuffler,
		logger:   logger,
		opts:     opts,
	}
}

// OnReload registers a hook fired after each load.
func (s *Store) OnReload(hook ReloadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Initialize loads dir, shuffles the images inside every group, builds a new
// presentation sequence and resets the cursor. Group order itself is kept as
// loaded. An empty dir reuses the current directory, then the default one.
func (s *Store) Initialize(dir string, chunkSize int) int {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if dir == "" {
		dir = s.Directory()
	}
	if dir == "" {
		dir = s.opts.DefaultDir
	}
	if chunkSize <= 0 {
		chunkSize = s.opts.ChunkSize
	}

	loaded, source := s.loader.Load(dir, chunkSize)
	groups := make([]group.Group, len(loaded))
	for i, g := range loaded {
		g = g.Clone()
		s.shuffler.Shuffle(len(g.Images), func(a, b int) {
			g.Images[a], g.Images[b] = g.Images[b], g.Images[a]
		})
		groups[i] = g
	}

	next := &state{
		directory: dir,
		source:    source,
		groups:    groups,
		sequence:  s.shuffler.Perm(len(groups)),
		cursor:    0,
		loadedAt:  time.Now(),
	}

	s.mu.Lock()
	s.state = next
	hooks := append([]ReloadHook(nil), s.hooks...)
	s.mu.Unlock()

	s.logger.Info("[GroupStore] Initialized %d groups (dir=%s, source=%s)", len(groups), dir, source)
	for _, hook := range hooks {
		hook(dir, len(groups))
	}
	return len(groups)
}

// Reload re-reads the current directory with the configured chunk size.
func (s *Store) Reload() int {
	return s.Initialize("", s.opts.ChunkSize)
}

// GetByPresentationIndex resolves presentation index i to its group. The
// returned Group shares its image slice with the store and must not be mutated.
func (s *Store) GetByPresentationIndex(i int) (group.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(i)
}

// AdvanceAndGet returns the group at the cursor and moves the cursor forward.
func (s *Store) AdvanceAndGet() (group.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil || s.state.cursor >= len(s.state.sequence) {
		return group.Entry{}, errors.Exhausted("No more groups")
	}
	i := s.state.cursor
	s.state.cursor++
	return s.resolveLocked(i)
}

// ResetCursor moves navigation back to the first presentation index without
// reloading groups.
func (s *Store) ResetCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.state.cursor = 0
	}
}

// Count reports the number of groups and the cursor position.
func (s *Store) Count() group.Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return group.Count{}
	}
	return group.Count{TotalGroups: len(s.state.sequence), CurrentIndex: s.state.cursor}
}

// Directory returns the directory of the last load, or "" before the first one.
func (s *Store) Directory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ""
	}
	return s.state.directory
}

// HasImage reports whether path names an image or reference image of a
// loaded group. Paths are compared after cleaning.
func (s *Store) HasImage(path string) bool {
	target := cleanImagePath(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || target == "" {
		return false
	}
	for _, g := range s.state.groups {
		if g.ReferenceImage != "" && cleanImagePath(g.ReferenceImage) == target {
			return true
		}
		for _, img := range g.Images {
			if cleanImagePath(img) == target {
				return true
			}
		}
	}
	return false
}

func cleanImagePath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return Snapshot{Groups: []group.Group{}, Sequence: []int{}}
	}
	groups := make([]group.Group, len(s.state.groups))
	for i, g := range s.state.groups {
		groups[i] = g.Clone()
	}
	return Snapshot{
		Directory: s.state.directory,
		Source:    s.state.source,
		Groups:    groups,
		Sequence:  append([]int{}, s.state.sequence...),
		Cursor:    s.state.cursor,
		LoadedAt:  s.state.loadedAt,
	}
}

func (s *Store) resolveLocked(i int) (group.Entry, error) {
	if s.state == nil || i < 0 || i >= len(s.state.sequence) {
		return group.Entry{}, errors.NotFound(fmt.Sprintf("Invalid group_id %d or no more groups", i))
	}
	g := s.state.groups[s.state.sequence[i]]
	return group.Entry{
		Group:             g,
		PresentationIndex: i,
		OrigID:            g.ID,
		Total:             len(s.state.sequence),
	}, nil
}
