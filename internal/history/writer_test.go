package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/mirror"
)

var runTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newStorage(t *testing.T, paths ...string) *mirror.MemoryStorage {
	t.Helper()
	storage := mirror.NewMemoryStorage(func() time.Time { return runTime })
	for _, p := range paths {
		if err := storage.Write(context.Background(), p, []byte("{}")); err != nil {
			t.Fatalf("Write %s: %v", p, err)
		}
	}
	return storage
}

func TestProcessMovesThroughStates(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t, "articles/1.json")
	log := NewMemoryLog()
	w := NewWriter(storage, log)
	item := Item{ID: "1", Path: "articles/1.json", CreateTime: "2024-03-01 08:00:00"}

	state, err := w.Process(ctx, item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if state != Committed {
		t.Fatalf("expected committed, got %s", state)
	}

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	want := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if !entries[0].AuthoredAt.Equal(want) || !entries[0].CommittedAt.Equal(want) {
		t.Fatalf("expected revision dated %v, got %+v", want, entries[0])
	}
	if entries[0].Message != "Add 1.json" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	info, _ := storage.Stat(ctx, "articles/1.json")
	if !info.ModTime.Equal(want) {
		t.Fatalf("expected mtime %v, got %v", want, info.ModTime)
	}
}

func TestProcessTwiceCreatesOneEntry(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	w := NewWriter(newStorage(t, "articles/1.json"), log)
	item := Item{ID: "1", Path: "articles/1.json", CreateTime: "2024-03-01 08:00:00"}

	for i := 0; i < 2; i++ {
		state, err := w.Process(ctx, item)
		if err != nil {
			t.Fatalf("Process #%d: %v", i, err)
		}
		if state != Committed {
			t.Fatalf("Process #%d: expected committed, got %s", i, state)
		}
	}
	if got := len(log.Entries()); got != 1 {
		t.Fatalf("expected a single entry, got %d", got)
	}
}

func TestSetTimestampRejectsMalformedTime(t *testing.T) {
	storage := newStorage(t, "articles/1.json")
	w := NewWriter(storage, NewMemoryLog())

	state, err := w.SetTimestamp(context.Background(), Item{Path: "articles/1.json", CreateTime: "03/01/2024"})
	if state != Unsynced {
		t.Fatalf("expected unsynced, got %s", state)
	}
	if !errors.Is(err, failures.ErrTimestampParse) {
		t.Fatalf("expected timestamp parse error, got %v", err)
	}
	info, _ := storage.Stat(context.Background(), "articles/1.json")
	if !info.ModTime.Equal(runTime) {
		t.Fatalf("mtime must stay untouched, got %v", info.ModTime)
	}
}

func TestCommitFailureKeepsTimestampSet(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	log.FailCommit = errors.New("backend down")
	w := NewWriter(newStorage(t, "articles/1.json"), log)
	item := Item{ID: "1", Path: "articles/1.json", CreateTime: "2024-03-01 08:00:00"}

	state, err := w.Process(ctx, item)
	if state != TimestampSet {
		t.Fatalf("expected timestamp_set, got %s", state)
	}
	if !errors.Is(err, failures.ErrCommit) {
		t.Fatalf("expected commit error, got %v", err)
	}

	log.FailCommit = nil
	if state, err := w.Commit(ctx, item); err != nil || state != Committed {
		t.Fatalf("retry: state=%s err=%v", state, err)
	}
}

func TestBatchSkipsInToleranceFilesAndOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t, "articles/a.json", "articles/b.json", "articles/c.json")
	log := NewMemoryLog()
	w := NewWriter(storage, log)

	synced := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := storage.SetModTime(ctx, "articles/c.json", synced.Add(500*time.Millisecond)); err != nil {
		t.Fatalf("SetModTime: %v", err)
	}
	// c is already recorded, so only the drifting files are candidates.
	if err := log.Stage(ctx, "articles/c.json"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := log.Commit(ctx, "Add c.json", synced, synced); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	items := []Item{
		{ID: "a", Path: "articles/a.json", CreateTime: "2024-05-01 00:00:00"},
		{ID: "b", Path: "articles/b.json", CreateTime: "2024-02-01 00:00:00"},
		{ID: "c", Path: "articles/c.json", CreateTime: "2024-01-01 00:00:00"},
		{ID: "d", Path: "articles/d.json", CreateTime: "not a time"},
	}
	report := w.Batch(ctx, items)

	if report.Considered != 4 || report.Candidates != 2 || report.Committed != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Errors) != 1 || !errors.Is(report.Errors[0], failures.ErrTimestampParse) {
		t.Fatalf("expected one timestamp error, got %v", report.Errors)
	}

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].Path != "articles/b.json" || entries[2].Path != "articles/a.json" {
		t.Fatalf("expected oldest-first order, got %s then %s", entries[1].Path, entries[2].Path)
	}

	second := w.Batch(ctx, items[:3])
	if second.Candidates != 0 || len(log.Entries()) != 3 {
		t.Fatalf("second batch must be a no-op, got %+v", second)
	}
}

func TestBatchRetriesUnrecordedFilesWithinTolerance(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t, "articles/a.json")
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := storage.SetModTime(ctx, "articles/a.json", created); err != nil {
		t.Fatalf("SetModTime: %v", err)
	}
	log := NewMemoryLog()
	report := NewWriter(storage, log).Batch(ctx, []Item{{ID: "a", Path: "articles/a.json", CreateTime: "2024-01-01 00:00:00"}})
	if report.Candidates != 1 || report.Committed != 1 {
		t.Fatalf("expected unrecorded file to be committed, got %+v", report)
	}
}

func TestBatchFailedCommitKeepsItsOwnRevisionDate(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t, "articles/1.json", "articles/2.json")
	runner := &fakeGit{
		history:  map[string]bool{},
		failOnce: map[string]error{"commit": errors.New("index.lock exists")},
	}
	w := NewWriter(storage, NewGitLog("/repo", WithRunner(runner)))
	items := []Item{
		{ID: "1", Path: "articles/1.json", CreateTime: "2024-01-01 00:00:00"},
		{ID: "2", Path: "articles/2.json", CreateTime: "2024-03-01 00:00:00"},
	}

	first := w.Batch(ctx, items)
	if first.Committed != 1 || len(first.Errors) != 1 || !errors.Is(first.Errors[0], failures.ErrCommit) {
		t.Fatalf("expected one commit and one commit error, got %+v", first)
	}
	commit := lastCommit(t, runner)
	if got := strings.Join(commit.args, " "); got != "git commit -m Add 2.json -- articles/2.json" {
		t.Fatalf("failed path leaked into the next revision: %q", got)
	}
	if commit.env[0] != "GIT_AUTHOR_DATE=1709251200 +0000" {
		t.Fatalf("unexpected date for article 2: %v", commit.env)
	}

	second := w.Batch(ctx, items)
	if second.Candidates != 1 || second.Committed != 1 || len(second.Errors) != 0 {
		t.Fatalf("expected the failed file to be retried, got %+v", second)
	}
	commit = lastCommit(t, runner)
	if got := strings.Join(commit.args, " "); got != "git commit -m Add 1.json -- articles/1.json" {
		t.Fatalf("unexpected retry commit %q", got)
	}
	if commit.env[0] != "GIT_AUTHOR_DATE=1704067200 +0000" {
		t.Fatalf("retry must carry article 1's own date, got %v", commit.env)
	}
}

func lastCommit(t *testing.T, runner *fakeGit) call {
	t.Helper()
	for i := len(runner.calls) - 1; i >= 0; i-- {
		if runner.calls[i].args[1] == "commit" {
			return runner.calls[i]
		}
	}
	t.Fatalf("no commit recorded")
	return call{}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{Unsynced: "unsynced", TimestampSet: "timestamp_set", Committed: "committed", State(9): "state(9)"}
	for state, want := range cases {
		if state.String() != want {
			t.Fatalf("expected %q, got %q", want, state.String())
		}
	}
}
