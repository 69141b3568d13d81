// Package watch reloads the group store when the manifest of the active
// image directory changes on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"grouprank/internal"
	"grouprank/internal/loader"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of editor saves into one reload.
const DefaultDebounce = 300 * time.Millisecond

// ManifestWatcher follows a single directory at a time.
type ManifestWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	pending  bool
	lastSeen time.Time
	running  bool

	onChange func()
	debounce time.Duration
	logger   *internal.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a watcher that calls onChange once per debounced burst of
// manifest events. Call Start to begin delivering events.
func New(onChange func(), debounce time.Duration, logger *internal.Logger) (*ManifestWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ManifestWatcher{
		watcher:  w,
		onChange: onChange,
		debounce: debounce,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start launches the event loop. It is non-blocking.
func (mw *ManifestWatcher) Start() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.running {
		return
	}
	mw.running = true
	go mw.run()
}

// Watch retargets the watcher at dir, dropping the previous directory.
func (mw *ManifestWatcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()
	if abs == mw.dir {
		return nil
	}
	if mw.dir != "" {
		// The old directory may already be gone.
		_ = mw.watcher.Remove(mw.dir)
	}
	mw.dir = ""
	mw.pending = false
	if err := mw.watcher.Add(abs); err != nil {
		return err
	}
	mw.dir = abs
	mw.logger.Debug("[ManifestWatcher] watching %s", abs)
	return nil
}

// Directory returns the directory currently watched.
func (mw *ManifestWatcher) Directory() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.dir
}

// Close stops the event loop and releases the fsnotify handle.
func (mw *ManifestWatcher) Close() error {
	mw.mu.Lock()
	running := mw.running
	mw.running = false
	mw.mu.Unlock()

	if running {
		close(mw.stopCh)
		<-mw.doneCh
	}
	return mw.watcher.Close()
}

func (mw *ManifestWatcher) run() {
	defer close(mw.doneCh)

	ticker := time.NewTicker(mw.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-mw.stopCh:
			return

		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			mw.handleEvent(event)

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.logger.Warn("[ManifestWatcher] watch error: %v", err)

		case <-ticker.C:
			if mw.due() {
				mw.logger.Info("[ManifestWatcher] manifest changed, reloading")
				mw.onChange()
			}
		}
	}
}

func (mw *ManifestWatcher) handleEvent(event fsnotify.Event) {
	if !isManifest(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()
	if filepath.Dir(event.Name) != mw.dir {
		return
	}
	mw.pending = true
	mw.lastSeen = time.Now()
	mw.logger.Debug("[ManifestWatcher] %s %s", event.Op, event.Name)
}

// due reports, and clears, a pending change whose burst has settled.
func (mw *ManifestWatcher) due() bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if !mw.pending || time.Since(mw.lastSeen) < mw.debounce {
		return false
	}
	mw.pending = false
	return true
}

func isManifest(path string) bool {
	base := filepath.Base(path)
	for _, name := range loader.ManifestNames {
		if base == name {
			return true
		}
	}
	return false
}
