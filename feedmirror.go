// Package feedmirror mirrors a remote article CMS into a local directory of
// JSON records and publishes Atom feeds, a README listing, HTML snapshots and
// a creation-time faithful revision history from it.
package feedmirror

import (
	"context"
	"sync"

	synccmd "github.com/goliatone/go-feedmirror/internal/commands/sync"
	"github.com/goliatone/go-feedmirror/internal/di"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/pipeline"
)

// Report summarises one run.
type Report = pipeline.Report

// Option overrides a runtime collaborator.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithStorage         = di.WithStorage
	WithFetcher         = di.WithFetcher
	WithHistoryLog      = di.WithHistoryLog
	WithGitRunner       = di.WithGitRunner
	WithBunDB           = di.WithBunDB
	WithMetricsRecorder = di.WithMetricsRecorder
	WithClock           = di.WithClock
)

// Module is the top level mirror runtime façade.
type Module struct {
	container *di.Container

	commandsOnce sync.Once
	commands     *synccmd.HandlerSet
	commandsErr  error
}

// New constructs a module from cfg. Options replace the collaborators the
// configuration would otherwise build.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Sync runs a full mirror pass. The error is non-nil only when the run was
// aborted; item failures are listed in the report.
func (m *Module) Sync(ctx context.Context, dryRun bool) (Report, error) {
	return m.container.Pipeline(dryRun).Run(ctx)
}

// BuildFeeds republishes the feeds from the mirror. A positive window
// overrides the bounded feed size.
func (m *Module) BuildFeeds(ctx context.Context, window int) (Report, error) {
	return m.container.Pipeline(false).BuildFeeds(ctx, window)
}

// ReplayHistory drives the given mirrored records, or all of them, through
// the history writer.
func (m *Module) ReplayHistory(ctx context.Context, ids []string) (Report, error) {
	return m.container.Pipeline(false).ReplayHistory(ctx, ids)
}

// Commands returns the command handlers bound to this module.
func (m *Module) Commands() (*synccmd.HandlerSet, error) {
	m.commandsOnce.Do(func() {
		m.commands, m.commandsErr = synccmd.RegisterSyncCommands(nil, m, m.container.LoggerProvider(),
			synccmd.WithCommandTimeout(m.container.Config.Commands.Timeout),
		)
	})
	return m.commands, m.commandsErr
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// IsFatal reports whether err aborted a run and should fail the process.
func IsFatal(err error) bool {
	return failures.IsFatal(err)
}
