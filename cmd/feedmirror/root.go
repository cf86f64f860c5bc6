package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	feedmirror "github.com/goliatone/go-feedmirror"
	synccmd "github.com/goliatone/go-feedmirror/internal/commands/sync"
	"github.com/goliatone/go-feedmirror/internal/pipeline"
)

// errItemFailures is returned in strict mode when a run finished with item
// errors.
var errItemFailures = errors.New("run finished with item errors")

type cliOptions struct {
	cfgFile string
	root    string
	strict  bool
	out     io.Writer
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{out: os.Stdout}

	root := &cobra.Command{
		Use:   "feedmirror",
		Short: "Mirror a remote article CMS and publish Atom feeds",
		Long: `feedmirror keeps a local JSON mirror of a remote article CMS and derives
Atom feeds, a README listing, HTML snapshots and a revision history from it.

Example usage:
  feedmirror sync                 # full run
  feedmirror sync --dry-run       # full run, history kept in memory
  feedmirror feeds --window 50    # republish feeds from the mirror
  feedmirror history 1234 1235    # replay history for two articles`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is .feedmirror.yaml)")
	root.PersistentFlags().StringVar(&opts.root, "root", "", "workspace root (overrides config)")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "exit non-zero when any article fails")

	root.AddCommand(newSyncCommand(opts), newFeedsCommand(opts), newHistoryCommand(opts))
	return root
}

func newSyncCommand(opts *cliOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new articles and rebuild every output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandlers(cmd.Context(), opts, func(ctx context.Context, set *synccmd.HandlerSet) (pipeline.Report, error) {
				err := set.Sync.Execute(ctx, synccmd.SyncMirrorCommand{DryRun: dryRun})
				return set.Sync.Last(), err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "record history in memory only")
	return cmd
}

func newFeedsCommand(opts *cliOptions) *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Republish the Atom feeds from the local mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandlers(cmd.Context(), opts, func(ctx context.Context, set *synccmd.HandlerSet) (pipeline.Report, error) {
				err := set.Feeds.Execute(ctx, synccmd.BuildFeedsCommand{Window: window})
				return set.Feeds.Last(), err
			})
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "entries in the bounded feed (0 keeps the configured window)")
	return cmd
}

func newHistoryCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [id...]",
		Short: "Replay the revision history for mirrored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlers(cmd.Context(), opts, func(ctx context.Context, set *synccmd.HandlerSet) (pipeline.Report, error) {
				err := set.History.Execute(ctx, synccmd.ReplayHistoryCommand{IDs: args})
				return set.History.Last(), err
			})
		},
	}
}

type runFunc func(ctx context.Context, set *synccmd.HandlerSet) (pipeline.Report, error)

func withHandlers(ctx context.Context, opts *cliOptions, run runFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.cfgFile)
	if err != nil {
		return err
	}
	if opts.root != "" {
		cfg.Root = opts.root
	}

	module, err := feedmirror.New(cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	set, err := module.Commands()
	if err != nil {
		return err
	}
	report, err := run(ctx, set)
	printReport(opts.out, report)
	if err != nil {
		return err
	}
	if opts.strict && !report.OK() {
		return fmt.Errorf("%w: %d", errItemFailures, len(report.Errors))
	}
	return nil
}

func printReport(w io.Writer, report pipeline.Report) {
	fields := []string{
		fmt.Sprintf("planned=%d", report.Planned),
		fmt.Sprintf("fetched=%d", report.Fetched),
		fmt.Sprintf("failed=%d", report.Failed),
		fmt.Sprintf("saved=%d", report.Saved),
		fmt.Sprintf("enriched=%d", report.Enriched),
		fmt.Sprintf("entries=%d", report.Entries),
		fmt.Sprintf("committed=%d", report.Committed),
		fmt.Sprintf("errors=%d", len(report.Errors)),
	}
	fmt.Fprintln(w, strings.Join(fields, " "))
}
