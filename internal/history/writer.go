// Package history records mirror files in an append-only revision log whose
// entries carry the article creation time instead of the time of the run.
package history

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// DefaultTolerance is the largest mtime drift from createTime that batch
// mode ignores.
const DefaultTolerance = time.Second

// State is the per-file position in the history state machine.
type State int

const (
	Unsynced State = iota
	TimestampSet
	Committed
)

func (s State) String() string {
	switch s {
	case Unsynced:
		return "unsynced"
	case TimestampSet:
		return "timestamp_set"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Item identifies one mirror file and the creation time it must carry.
type Item struct {
	ID         string
	Path       string
	CreateTime string
}

// Entry is one recorded revision of a path.
type Entry struct {
	Revision    string
	Path        string
	Message     string
	AuthoredAt  time.Time
	CommittedAt time.Time
}

// BatchReport summarises a Batch call.
type BatchReport struct {
	Considered  int
	Candidates  int
	Timestamped int
	Committed   int
	Existing    int
	Errors      []error
}

// Writer drives files through Unsynced, TimestampSet and Committed.
type Writer struct {
	storage   interfaces.MirrorStorage
	log       interfaces.HistoryLog
	tolerance time.Duration
	message   func(name string) string
	logger    interfaces.Logger
}

// Option customises a Writer.
type Option func(*Writer)

// WithTolerance overrides the batch drift tolerance.
func WithTolerance(d time.Duration) Option {
	return func(w *Writer) {
		if d >= 0 {
			w.tolerance = d
		}
	}
}

// WithMessage overrides the commit message built from the file name.
func WithMessage(fn func(name string) string) Option {
	return func(w *Writer) {
		if fn != nil {
			w.message = fn
		}
	}
}

// WithLogger sets the writer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter returns a writer updating files in storage and recording them in
// log.
func NewWriter(storage interfaces.MirrorStorage, log interfaces.HistoryLog, opts ...Option) *Writer {
	w := &Writer{
		storage:   storage,
		log:       log,
		tolerance: DefaultTolerance,
		message:   func(name string) string { return "Add " + name },
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// SetTimestamp moves item from Unsynced to TimestampSet by applying its
// creation time as the file modification time.
func (w *Writer) SetTimestamp(ctx context.Context, item Item) (State, error) {
	created, err := articles.ParseCreateTime(item.CreateTime)
	if err != nil {
		return Unsynced, failures.TimestampParse(item.CreateTime, err)
	}
	if err := w.storage.SetModTime(ctx, item.Path, created); err != nil {
		return Unsynced, fmt.Errorf("history: set mtime %s: %w", item.Path, err)
	}
	return TimestampSet, nil
}

// Commit moves item from TimestampSet to Committed. A path the log already
// knows is treated as committed without appending a new revision.
func (w *Writer) Commit(ctx context.Context, item Item) (State, error) {
	state, _, err := w.commit(ctx, item)
	return state, err
}

func (w *Writer) commit(ctx context.Context, item Item) (State, bool, error) {
	exists, err := w.log.Exists(ctx, item.Path)
	if err != nil {
		return TimestampSet, false, failures.Commit(item.Path, err)
	}
	if exists {
		return Committed, false, nil
	}
	info, err := w.storage.Stat(ctx, item.Path)
	if err != nil {
		return TimestampSet, false, failures.Commit(item.Path, err)
	}
	if err := w.log.Stage(ctx, item.Path); err != nil {
		return TimestampSet, false, failures.Commit(item.Path, err)
	}
	stamp := info.ModTime.UTC()
	if err := w.log.Commit(ctx, w.message(path.Base(item.Path)), stamp, stamp); err != nil {
		return TimestampSet, false, failures.Commit(item.Path, err)
	}
	return Committed, true, nil
}

// Process runs both transitions for item.
func (w *Writer) Process(ctx context.Context, item Item) (State, error) {
	state, _, err := w.process(ctx, item)
	return state, err
}

func (w *Writer) process(ctx context.Context, item Item) (State, bool, error) {
	logger := logging.WithArticleContext(w.logger, item.ID, "history")
	state, err := w.SetTimestamp(ctx, item)
	if err != nil {
		logger.Warn("history.timestamp_failed", "path", item.Path, "error", err)
		return state, false, err
	}
	state, appended, err := w.commit(ctx, item)
	if err != nil {
		logger.Error("history.commit_failed", "path", item.Path, "error", err)
		return state, false, err
	}
	if appended {
		logger.Info("history.committed", "path", item.Path)
	}
	return state, appended, nil
}

type candidate struct {
	item    Item
	created time.Time
}

// Batch processes the items whose file mtime drifts from createTime by more
// than the tolerance. When the log can list tracked paths, in-tolerance
// files it has never recorded are retried as well. Candidates run oldest
// createTime first.
func (w *Writer) Batch(ctx context.Context, items []Item) BatchReport {
	report := BatchReport{Considered: len(items)}

	var tracked map[string]struct{}
	if lister, ok := w.log.(interfaces.HistoryLister); ok {
		set, err := lister.Tracked(ctx)
		if err != nil {
			report.Errors = append(report.Errors, failures.Commit("*", err))
		} else {
			tracked = set
		}
	}

	candidates := make([]candidate, 0, len(items))
	for _, item := range items {
		created, err := articles.ParseCreateTime(item.CreateTime)
		if err != nil {
			report.Errors = append(report.Errors, failures.TimestampParse(item.CreateTime, err))
			continue
		}
		info, err := w.storage.Stat(ctx, item.Path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("history: stat %s: %w", item.Path, err))
			continue
		}
		if drift(info.ModTime, created) > w.tolerance {
			candidates = append(candidates, candidate{item: item, created: created})
			continue
		}
		if tracked != nil {
			if _, ok := tracked[item.Path]; !ok {
				candidates = append(candidates, candidate{item: item, created: created})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].created.Before(candidates[j].created)
	})
	report.Candidates = len(candidates)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err)
			break
		}
		state, appended, err := w.process(ctx, c.item)
		if state >= TimestampSet {
			report.Timestamped++
		}
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		if appended {
			report.Committed++
		} else {
			report.Existing++
		}
	}

	w.logger.Info("history.batch_complete",
		"considered", report.Considered,
		"candidates", report.Candidates,
		"committed", report.Committed,
		"errors", len(report.Errors),
	)
	return report
}

func drift(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// ErrNothingStaged is returned by logs asked to commit without staged paths.
var ErrNothingStaged = errors.New("history: nothing staged")
