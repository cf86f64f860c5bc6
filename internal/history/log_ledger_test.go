package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-feedmirror/pkg/testsupport"
)

func newLedger(t *testing.T) *LedgerLog {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ledger := NewLedgerLog(testsupport.NewBunDB(t))
	if err := ledger.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return ledger
}

func TestLedgerLogRecordsRevisions(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t)

	exists, err := ledger.Exists(ctx, "articles/1.json")
	if err != nil || exists {
		t.Fatalf("expected missing path, got exists=%v err=%v", exists, err)
	}
	if err := ledger.Commit(ctx, "Add 1.json", time.Now(), time.Now()); !errors.Is(err, ErrNothingStaged) {
		t.Fatalf("expected ErrNothingStaged, got %v", err)
	}

	authored := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	if err := ledger.Stage(ctx, "articles/1.json"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := ledger.Commit(ctx, "Add 1.json", authored, authored); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	exists, err = ledger.Exists(ctx, "articles/1.json")
	if err != nil || !exists {
		t.Fatalf("expected recorded path, got exists=%v err=%v", exists, err)
	}
	tracked, err := ledger.Tracked(ctx)
	if err != nil {
		t.Fatalf("Tracked: %v", err)
	}
	if _, ok := tracked["articles/1.json"]; !ok || len(tracked) != 1 {
		t.Fatalf("unexpected tracked set %v", tracked)
	}

	entries, err := ledger.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "Add 1.json" || !entries[0].AuthoredAt.Equal(authored) {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].Revision == "" {
		t.Fatalf("expected revision id")
	}
}

func TestLedgerLogWithWriterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t)
	w := NewWriter(newStorage(t, "articles/7.json"), ledger)
	item := Item{ID: "7", Path: "articles/7.json", CreateTime: "2023-12-24 18:00:00"}

	for i := 0; i < 2; i++ {
		if state, err := w.Process(ctx, item); err != nil || state != Committed {
			t.Fatalf("Process #%d: state=%s err=%v", i, state, err)
		}
	}
	entries, err := ledger.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
}

func TestLedgerLogRequiresDatabase(t *testing.T) {
	ledger := NewLedgerLog(nil)
	if _, err := ledger.Exists(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without database")
	}
}
