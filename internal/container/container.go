package container

import (
	"context"
	"fmt"

	"grouprank/adapters/picker"
	"grouprank/adapters/sqlstore"
	"grouprank/internal"
	"grouprank/internal/config"
	"grouprank/internal/groupstore"
	"grouprank/internal/loader"
	"grouprank/internal/presentation"
	"grouprank/internal/random"
	"grouprank/internal/session"
	"grouprank/internal/submission"
	"grouprank/internal/watch"
	"grouprank/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Groups
	Loader   *loader.Loader
	Random   *random.Source
	Store    *groupstore.Store
	Resolver *presentation.Resolver

	// Results
	Aggregator *submission.Aggregator
	Mirror     ports.SubmissionMirror

	// Identity and collaborators
	Sessions *session.Manager
	Picker   ports.DirectoryPicker
	Watcher  *watch.ManifestWatcher
}

// New creates a new dependency injection container. Nothing touches the
// disk or the network until Init is called.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.initGroups()
	c.initCollaborators()
	return c, nil
}

// Init connects the optional mirror, builds the aggregator, starts the
// manifest watcher and performs the initial group load.
func (c *Container) Init(ctx context.Context) error {
	if err := c.initMirror(ctx); err != nil {
		return fmt.Errorf("failed to initialize submission mirror: %w", err)
	}

	c.initAggregator()

	if err := c.initWatcher(); err != nil {
		return fmt.Errorf("failed to initialize manifest watcher: %w", err)
	}

	total := c.Store.Initialize(c.Config.Labeling.ImageDir, c.Config.Labeling.GroupSize)
	c.Logger.Info("Container initialized: %d groups from %s", total, c.Store.Directory())
	return nil
}

func (c *Container) initGroups() {
	c.Loader = loader.New(c.Logger.With("component", "loader"))
	c.Random = random.New()
	c.Store = groupstore.New(c.Loader, c.Random, c.Logger.With("component", "groupstore"), groupstore.Options{
		DefaultDir: c.Config.Labeling.ImageDir,
		ChunkSize:  c.Config.Labeling.GroupSize,
	})
	c.Resolver = presentation.NewResolver(c.Random, true)
}

func (c *Container) initCollaborators() {
	c.Sessions = session.NewManager(c.Config.Session.TTL, c.Logger.With("component", "session"))

	if len(c.Config.Picker.Command) > 0 {
		c.Picker = picker.NewCommandPicker(c.Config.Picker.Command, c.Config.Picker.Timeout)
	} else {
		c.Picker = picker.Disabled{}
	}
}

// initMirror opens the SQL mirror when DATABASE_URL is set
func (c *Container) initMirror(ctx context.Context) error {
	db := c.Config.Database
	if db.URL == "" {
		return nil
	}

	mirror, err := sqlstore.Open(ctx, db.Driver, db.URL)
	if err != nil {
		return err
	}
	c.Mirror = mirror
	c.Logger.Info("Submission mirror enabled (driver=%s)", db.Driver)
	return nil
}

func (c *Container) initAggregator() {
	var opts []submission.Option
	if c.Mirror != nil {
		opts = append(opts, submission.WithMirror(c.Mirror))
	}
	c.Aggregator = submission.NewAggregator(c.Store, c.Logger.With("component", "submission"), opts...)
}

// initWatcher follows the active directory's manifest when WATCH_MANIFEST is on
func (c *Container) initWatcher() error {
	if !c.Config.Labeling.WatchManifest {
		return nil
	}

	w, err := watch.New(func() { c.Store.Reload() }, watch.DefaultDebounce, c.Logger.With("component", "watch"))
	if err != nil {
		return err
	}
	c.Watcher = w

	c.Store.OnReload(func(dir string, _ int) {
		if err := w.Watch(dir); err != nil {
			c.Logger.Warn("Manifest watcher cannot follow %s: %v", dir, err)
		}
	})
	w.Start()
	return nil
}

// Close releases the watcher and the mirror connection.
func (c *Container) Close() error {
	var firstErr error
	if c.Watcher != nil {
		if err := c.Watcher.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Mirror != nil {
		if err := c.Mirror.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
