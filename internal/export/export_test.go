package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-feedmirror/internal/mirror"
)

func sampleDoc() Document {
	return Document{
		FrontMatter: FrontMatter{
			ID:       "42",
			Title:    "Patch: 2.0 \"Notes\"",
			Created:  "2024-03-01T08:00:00Z",
			Category: "News",
			Source:   "https://example.com/news/42",
		},
		Body: "# Heading\n\n* item",
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	data, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\nid: \"42\"\n") {
		t.Fatalf("unexpected header:\n%s", data)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := sampleDoc()
	want.Checksum = Checksum(want.Body)
	if diff := cmp.Diff(want, parsed); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestExportSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	storage := mirror.NewMemoryStorage(nil)
	e := NewExporter(storage, "markdown")
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	written, err := e.Export(ctx, sampleDoc(), created)
	if err != nil || !written {
		t.Fatalf("first export: written=%v err=%v", written, err)
	}
	info, err := storage.Stat(ctx, "markdown/42.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.ModTime.Equal(created) {
		t.Fatalf("expected mtime %v, got %v", created, info.ModTime)
	}

	written, err = e.Export(ctx, sampleDoc(), created)
	if err != nil || written {
		t.Fatalf("unchanged export must be skipped: written=%v err=%v", written, err)
	}

	changed := sampleDoc()
	changed.Body = "# Heading\n\n* other"
	written, err = e.Export(ctx, changed, created)
	if err != nil || !written {
		t.Fatalf("changed export: written=%v err=%v", written, err)
	}
}

func TestExportRequiresID(t *testing.T) {
	e := NewExporter(mirror.NewMemoryStorage(nil), "markdown")
	if _, err := e.Export(context.Background(), Document{Body: "x"}, time.Time{}); err != ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}
