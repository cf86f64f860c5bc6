package synccmd

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-feedmirror/internal/commands"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the handlers produced by RegisterSyncCommands.
type HandlerSet struct {
	Sync    *SyncMirrorHandler
	Feeds   *BuildFeedsHandler
	History *ReplayHistoryHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	syncOpts    []commands.HandlerOption[SyncMirrorCommand]
	feedsOpts   []commands.HandlerOption[BuildFeedsCommand]
	historyOpts []commands.HandlerOption[ReplayHistoryCommand]
}

// WithSyncHandlerOptions forwards options to the SyncMirrorHandler constructor.
func WithSyncHandlerOptions(opts ...commands.HandlerOption[SyncMirrorCommand]) Option {
	return func(cfg *options) {
		cfg.syncOpts = append(cfg.syncOpts, opts...)
	}
}

// WithFeedsHandlerOptions forwards options to the BuildFeedsHandler constructor.
func WithFeedsHandlerOptions(opts ...commands.HandlerOption[BuildFeedsCommand]) Option {
	return func(cfg *options) {
		cfg.feedsOpts = append(cfg.feedsOpts, opts...)
	}
}

// WithHistoryHandlerOptions forwards options to the ReplayHistoryHandler constructor.
func WithHistoryHandlerOptions(opts ...commands.HandlerOption[ReplayHistoryCommand]) Option {
	return func(cfg *options) {
		cfg.historyOpts = append(cfg.historyOpts, opts...)
	}
}

// WithCommandTimeout bounds every sync command by timeout. Zero leaves them
// unbounded.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(cfg *options) {
		cfg.syncOpts = append(cfg.syncOpts, commands.WithTimeout[SyncMirrorCommand](timeout))
		cfg.feedsOpts = append(cfg.feedsOpts, commands.WithTimeout[BuildFeedsCommand](timeout))
		cfg.historyOpts = append(cfg.historyOpts, commands.WithTimeout[ReplayHistoryCommand](timeout))
	}
}

// RegisterSyncCommands builds the handlers and registers them with reg when
// it is non-nil.
func RegisterSyncCommands(reg CommandRegistry, service Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("sync command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "sync")
	set := &HandlerSet{
		Sync:    NewSyncMirrorHandler(service, logger, cfg.syncOpts...),
		Feeds:   NewBuildFeedsHandler(service, logger, cfg.feedsOpts...),
		History: NewReplayHistoryHandler(service, logger, cfg.historyOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Sync, set.Feeds, set.History} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterSyncCron schedules the sync handler through a cron registrar. The
// handler runs with a background context.
func RegisterSyncCron(reg CronRegistrar, handler *SyncMirrorHandler, cfg command.HandlerConfig, msg SyncMirrorCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
