// Package di wires the mirror runtime from configuration. Every collaborator
// can be overridden with an Option before the container is finalised.
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-feedmirror/internal/export"
	"github.com/goliatone/go-feedmirror/internal/feeds"
	"github.com/goliatone/go-feedmirror/internal/history"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/logging/console"
	"github.com/goliatone/go-feedmirror/internal/logging/gologger"
	"github.com/goliatone/go-feedmirror/internal/markup"
	"github.com/goliatone/go-feedmirror/internal/metrics"
	"github.com/goliatone/go-feedmirror/internal/mirror"
	"github.com/goliatone/go-feedmirror/internal/pipeline"
	"github.com/goliatone/go-feedmirror/internal/readme"
	"github.com/goliatone/go-feedmirror/internal/remote"
	"github.com/goliatone/go-feedmirror/internal/runtimeconfig"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"

	_ "github.com/mattn/go-sqlite3"
)

// Container holds the configured collaborators of one mirror workspace.
type Container struct {
	Config runtimeconfig.Config

	provider interfaces.LoggerProvider
	storage  interfaces.MirrorStorage
	fetcher  interfaces.Fetcher
	log      interfaces.HistoryLog
	runner   history.Runner
	bunDB    *bun.DB
	ownsDB   bool
	recorder *metrics.Recorder
	clock    func() time.Time
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.provider = provider
		}
	}
}

// WithStorage overrides the OS file storage rooted at Config.Root.
func WithStorage(storage interfaces.MirrorStorage) Option {
	return func(c *Container) {
		if storage != nil {
			c.storage = storage
		}
	}
}

// WithFetcher overrides the HTTP fetcher.
func WithFetcher(fetcher interfaces.Fetcher) Option {
	return func(c *Container) {
		if fetcher != nil {
			c.fetcher = fetcher
		}
	}
}

// WithHistoryLog overrides the log selected by the history backend.
func WithHistoryLog(log interfaces.HistoryLog) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// WithGitRunner overrides the command runner of the git backend.
func WithGitRunner(runner history.Runner) Option {
	return func(c *Container) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithBunDB supplies the database of the ledger backend. The container does
// not close a database it did not open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithMetricsRecorder overrides the recorder created when metrics are enabled.
func WithMetricsRecorder(rec *metrics.Recorder) Option {
	return func(c *Container) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

// WithClock overrides the clock shared by the client, feeds and history.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.clock = now
		}
	}
}

// NewContainer validates cfg and builds every collaborator not supplied
// through opts.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.provider == nil {
		provider, err := newLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		c.provider = provider
	}
	if c.storage == nil {
		c.storage = mirror.NewFileStorage(cfg.Root)
	}
	if c.fetcher == nil {
		fetcherOpts := []remote.FetcherOption{remote.WithTimeout(cfg.Remote.Timeout)}
		if ua := strings.TrimSpace(cfg.Remote.UserAgent); ua != "" {
			fetcherOpts = append(fetcherOpts, remote.WithUserAgent(ua))
		}
		c.fetcher = remote.NewHTTPFetcher(fetcherOpts...)
	}
	if c.recorder == nil && cfg.Metrics.Enabled {
		c.recorder = metrics.NewRecorder()
	}
	if c.log == nil && cfg.History.Enabled {
		log, err := c.newHistoryLog(ctx)
		if err != nil {
			return nil, err
		}
		c.log = log
	}
	return c, nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	case "noop":
		return nil, nil
	default:
		level, err := console.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		return console.NewProvider(console.Options{MinLevel: &level}), nil
	}
}

func (c *Container) newHistoryLog(ctx context.Context) (interfaces.HistoryLog, error) {
	switch strings.ToLower(strings.TrimSpace(c.Config.History.Backend)) {
	case runtimeconfig.HistoryBackendMemory:
		return history.NewMemoryLog(), nil
	case runtimeconfig.HistoryBackendLedger:
		if c.bunDB == nil {
			sqldb, err := sql.Open("sqlite3", c.Config.History.LedgerDSN)
			if err != nil {
				return nil, fmt.Errorf("di: open ledger: %w", err)
			}
			sqldb.SetMaxOpenConns(1)
			c.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
			c.ownsDB = true
		}
		ledger := history.NewLedgerLog(c.bunDB)
		if err := ledger.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("di: migrate ledger: %w", err)
		}
		return ledger, nil
	default:
		opts := []history.GitOption{history.WithGitBinary(c.Config.History.GitBinary)}
		if c.runner != nil {
			opts = append(opts, history.WithRunner(c.runner))
		}
		return history.NewGitLog(c.Config.Root, opts...), nil
	}
}

// LoggerProvider returns the configured provider. It is nil for the noop
// provider, which module loggers treat as a no-op logger.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.provider }

// Storage returns the workspace storage.
func (c *Container) Storage() interfaces.MirrorStorage { return c.storage }

// HistoryLog returns the configured history log, or nil when history is off.
func (c *Container) HistoryLog() interfaces.HistoryLog { return c.log }

// Metrics returns the recorder, or nil when metrics are off.
func (c *Container) Metrics() *metrics.Recorder { return c.recorder }

// Mirror returns the local mirror over the workspace storage.
func (c *Container) Mirror() *mirror.Mirror {
	return mirror.New(c.storage, c.Config.Mirror.Dir, mirror.WithLogger(logging.MirrorLogger(c.provider)))
}

// Client returns the remote client.
func (c *Container) Client() *remote.Client {
	return remote.NewClient(c.Config.Remote.BaseURL, c.fetcher,
		remote.WithClock(c.clock),
		remote.WithSchemaValidation(c.Config.Remote.ValidateSchemas),
		remote.WithLogger(logging.RemoteLogger(c.provider)),
	)
}

// Pipeline assembles a run. A dry run records history in a fresh memory log
// and skips the metrics textfile.
func (c *Container) Pipeline(dryRun bool) *pipeline.Pipeline {
	cfg := c.Config
	opts := []pipeline.Option{
		pipeline.WithClock(c.clock),
		pipeline.WithLogger(logging.PipelineLogger(c.provider)),
		pipeline.WithConverter(markup.NewConverter()),
	}
	if cfg.Feeds.Enabled {
		opts = append(opts,
			pipeline.WithFeeds(cfg.Feeds.Metadata,
				feeds.Variant{File: cfg.Feeds.LatestFile, Window: cfg.Feeds.Window},
				feeds.Variant{File: cfg.Feeds.AllFile, Window: 0},
			),
			pipeline.WithFeedVerification(true),
		)
	}
	if cfg.Readme.Enabled {
		opts = append(opts, pipeline.WithReadme(readme.NewGenerator(cfg.Feeds.Metadata.ArticleURL, cfg.Mirror.Dir), cfg.Readme.Path))
	}
	if cfg.Snapshots.Enabled {
		opts = append(opts, pipeline.WithSnapshots(markup.NewSnapshotWriter(c.storage, cfg.Snapshots.Dir,
			markup.WithSnapshotLogger(logging.MarkupLogger(c.provider)),
		)))
	}
	if cfg.Export.Enabled {
		opts = append(opts, pipeline.WithExporter(export.NewExporter(c.storage, cfg.Export.Dir,
			export.WithLogger(logging.MarkupLogger(c.provider)),
		)))
	}
	if log := c.historyLogFor(dryRun); log != nil {
		opts = append(opts, pipeline.WithHistory(history.NewWriter(c.storage, log,
			history.WithTolerance(cfg.History.Tolerance),
			history.WithLogger(logging.HistoryLogger(c.provider)),
		)))
	}
	if c.recorder != nil {
		path := cfg.Metrics.TextfilePath
		if dryRun {
			path = ""
		}
		opts = append(opts, pipeline.WithMetrics(c.recorder, path))
	}
	return pipeline.New(c.Client(), c.Mirror(), c.storage, opts...)
}

func (c *Container) historyLogFor(dryRun bool) interfaces.HistoryLog {
	if c.log == nil {
		return nil
	}
	if dryRun {
		return history.NewMemoryLog()
	}
	return c.log
}

// Close releases the ledger database when the container opened it.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}
