package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/logging/console"
)

func TestConsoleLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)

	minLevel := console.LevelDebug
	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
		MinLevel: &minLevel,
	})

	logger := logging.ModuleLogger(provider, "feedmirror.remote")
	ctx := logging.ContextWithFields(context.Background(), map[string]any{
		"run_id": "run-42",
	})
	logger = logger.WithContext(ctx)

	logger.Info("article.fetched",
		"article_id", "1234",
		"created_at", time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
	)

	got := strings.TrimSpace(buf.String())
	want := "2024-03-14T15:09:26.535897Z INFO article.fetched article_id=1234 created_at=2024-03-15T08:00:00Z logger=feedmirror.remote module=feedmirror.remote run_id=run-42"
	if got != want {
		t.Fatalf("unexpected log entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	minLevel := console.LevelInfo
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: &minLevel})

	logger := provider.GetLogger("feedmirror.test")
	logger.Debug("ignored.debug", "foo", "bar")
	logger.Info("included.info", "foo", "bar")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected single log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "included.info") {
		t.Fatalf("expected info log to be written, got %s", lines[0])
	}
}

func TestConsoleLogger_QuotesAndPositionalArgs(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return time.Unix(0, 0) },
	})

	provider.GetLogger("x").Error("failed", "error", errors.New("boom bang"), "dangling")

	got := strings.TrimSpace(buf.String())
	if !strings.Contains(got, `error="boom bang"`) {
		t.Fatalf("expected quoted error, got %s", got)
	}
	if !strings.Contains(got, "field_1=dangling") {
		t.Fatalf("expected positional field, got %s", got)
	}
}

func TestParseLevel(t *testing.T) {
	level, err := console.ParseLevel("WARNING")
	if err != nil || level != console.LevelWarn {
		t.Fatalf("expected warn level, got %v (%v)", level, err)
	}
	if _, err := console.ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
