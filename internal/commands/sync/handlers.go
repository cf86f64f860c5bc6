package synccmd

import (
	"context"
	"sync"

	"github.com/goliatone/go-feedmirror/internal/commands"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/pipeline"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	syncOperation    = "sync.mirror"
	feedsOperation   = "sync.build_feeds"
	historyOperation = "sync.replay_history"
)

// Service is the mirror surface driven by the command handlers.
type Service interface {
	Sync(ctx context.Context, dryRun bool) (pipeline.Report, error)
	BuildFeeds(ctx context.Context, window int) (pipeline.Report, error)
	ReplayHistory(ctx context.Context, ids []string) (pipeline.Report, error)
}

var (
	_ command.Commander[SyncMirrorCommand]    = (*SyncMirrorHandler)(nil)
	_ command.Commander[BuildFeedsCommand]    = (*BuildFeedsHandler)(nil)
	_ command.Commander[ReplayHistoryCommand] = (*ReplayHistoryHandler)(nil)
)

// reports keeps the report of the last execution.
type reports struct {
	mu   sync.Mutex
	last pipeline.Report
}

func (r *reports) store(report pipeline.Report) {
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
}

// Last returns the report of the most recent execution.
func (r *reports) Last() pipeline.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// outcome exposes the last report to command telemetry.
func (r *reports) outcome() commands.Outcome {
	report := r.Last()
	return commands.Outcome{Fields: reportFields(report), ItemErrors: len(report.Errors)}
}

func reportFields(report pipeline.Report) map[string]any {
	return map[string]any{
		"planned":   report.Planned,
		"skipped":   report.Skipped,
		"fetched":   report.Fetched,
		"failed":    report.Failed,
		"saved":     report.Saved,
		"enriched":  report.Enriched,
		"snapshots": report.Snapshots,
		"exported":  report.Exported,
		"entries":   report.Entries,
		"committed": report.Committed,
	}
}

func logItemErrors(logger interfaces.Logger, report pipeline.Report) {
	for _, err := range report.Errors {
		logger.Warn("sync.item_error", "kind", commands.FailureKind(err), "error", err)
	}
}

// SyncMirrorHandler runs SyncMirrorCommand. Item errors are logged and kept
// in the report; only a fatal run error is returned.
type SyncMirrorHandler struct {
	reports
	inner *commands.Handler[SyncMirrorCommand]
}

// NewSyncMirrorHandler creates a handler bound to service.
func NewSyncMirrorHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[SyncMirrorCommand]) *SyncMirrorHandler {
	baseLogger := logging.Ensure(logger)
	h := &SyncMirrorHandler{}
	exec := func(ctx context.Context, msg SyncMirrorCommand) error {
		report, err := service.Sync(ctx, msg.DryRun)
		h.store(report)
		logItemErrors(baseLogger, report)
		return err
	}
	handlerOpts := []commands.HandlerOption[SyncMirrorCommand]{
		commands.WithLogger[SyncMirrorCommand](baseLogger),
		commands.WithOperation[SyncMirrorCommand](syncOperation),
		commands.WithMessageFields(func(msg SyncMirrorCommand) map[string]any {
			if msg.DryRun {
				return map[string]any{"dry_run": true}
			}
			return nil
		}),
		commands.WithOutcome[SyncMirrorCommand](h.outcome),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncMirrorCommand](baseLogger)),
	}
	h.inner = commands.NewHandler(exec, append(handlerOpts, opts...)...)
	return h
}

// Execute satisfies command.Commander[SyncMirrorCommand].
func (h *SyncMirrorHandler) Execute(ctx context.Context, msg SyncMirrorCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildFeedsHandler runs BuildFeedsCommand.
type BuildFeedsHandler struct {
	reports
	inner *commands.Handler[BuildFeedsCommand]
}

// NewBuildFeedsHandler creates a handler bound to service.
func NewBuildFeedsHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildFeedsCommand]) *BuildFeedsHandler {
	baseLogger := logging.Ensure(logger)
	h := &BuildFeedsHandler{}
	exec := func(ctx context.Context, msg BuildFeedsCommand) error {
		report, err := service.BuildFeeds(ctx, msg.Window)
		h.store(report)
		logItemErrors(baseLogger, report)
		return err
	}
	handlerOpts := []commands.HandlerOption[BuildFeedsCommand]{
		commands.WithLogger[BuildFeedsCommand](baseLogger),
		commands.WithOperation[BuildFeedsCommand](feedsOperation),
		commands.WithMessageFields(func(msg BuildFeedsCommand) map[string]any {
			return map[string]any{"window": msg.Window}
		}),
		commands.WithOutcome[BuildFeedsCommand](h.outcome),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildFeedsCommand](baseLogger)),
	}
	h.inner = commands.NewHandler(exec, append(handlerOpts, opts...)...)
	return h
}

// Execute satisfies command.Commander[BuildFeedsCommand].
func (h *BuildFeedsHandler) Execute(ctx context.Context, msg BuildFeedsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ReplayHistoryHandler runs ReplayHistoryCommand.
type ReplayHistoryHandler struct {
	reports
	inner *commands.Handler[ReplayHistoryCommand]
}

// NewReplayHistoryHandler creates a handler bound to service.
func NewReplayHistoryHandler(service Service, logger interfaces.Logger, opts ...commands.HandlerOption[ReplayHistoryCommand]) *ReplayHistoryHandler {
	baseLogger := logging.Ensure(logger)
	h := &ReplayHistoryHandler{}
	exec := func(ctx context.Context, msg ReplayHistoryCommand) error {
		report, err := service.ReplayHistory(ctx, msg.IDs)
		h.store(report)
		logItemErrors(baseLogger, report)
		return err
	}
	handlerOpts := []commands.HandlerOption[ReplayHistoryCommand]{
		commands.WithLogger[ReplayHistoryCommand](baseLogger),
		commands.WithOperation[ReplayHistoryCommand](historyOperation),
		commands.WithMessageFields(func(msg ReplayHistoryCommand) map[string]any {
			return map[string]any{"ids": len(msg.IDs)}
		}),
		commands.WithOutcome[ReplayHistoryCommand](h.outcome),
		commands.WithTelemetry(commands.DefaultTelemetry[ReplayHistoryCommand](baseLogger)),
	}
	h.inner = commands.NewHandler(exec, append(handlerOpts, opts...)...)
	return h
}

// Execute satisfies command.Commander[ReplayHistoryCommand].
func (h *ReplayHistoryHandler) Execute(ctx context.Context, msg ReplayHistoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
