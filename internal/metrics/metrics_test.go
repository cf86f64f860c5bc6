package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.Planned(3)
	r.Fetched(2, 1)
	r.Saved(2)
	r.Enriched(5)
	r.FeedEntries("articles_latest.xml", 20)
	r.Committed(2)
	r.Error("FETCH_FAILED")
	r.Error("")

	if got := testutil.ToFloat64(r.planned); got != 3 {
		t.Fatalf("planned = %v", got)
	}
	if got := testutil.ToFloat64(r.fetches.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed fetches = %v", got)
	}
	if got := testutil.ToFloat64(r.feedEntries.WithLabelValues("articles_latest.xml")); got != 20 {
		t.Fatalf("feed entries = %v", got)
	}
	if got := testutil.ToFloat64(r.errors.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown errors = %v", got)
	}
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	r.Planned(1)
	r.Fetched(1, 1)
	r.Error("x")
	r.RunFinished(time.Second, time.Now(), true)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Saved(4)
	r.RunFinished(1500*time.Millisecond, time.Unix(1700000000, 0), true)

	path := filepath.Join(t.TempDir(), "feedmirror.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{
		"feedmirror_records_saved_total 4",
		"feedmirror_run_duration_seconds 1.5",
		"feedmirror_last_run_success 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in:\n%s", want, data)
		}
	}
}
