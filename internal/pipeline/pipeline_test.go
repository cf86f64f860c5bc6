package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/export"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/feeds"
	"github.com/goliatone/go-feedmirror/internal/history"
	"github.com/goliatone/go-feedmirror/internal/markup"
	"github.com/goliatone/go-feedmirror/internal/metrics"
	"github.com/goliatone/go-feedmirror/internal/mirror"
	"github.com/goliatone/go-feedmirror/internal/readme"
	"github.com/goliatone/go-feedmirror/internal/remote"
)

const indexPayload = `[
  {"articleId": 1, "articleTitle": "First", "createTime": "2024-01-01 00:00:00", "sortingMark": 5, "articleTypeName": "News"},
  {"articleId": 2, "articleTitle": "Second", "createTime": "2024-02-01 00:00:00", "sortingMark": 4, "articleTypeName": "Events"}
]`

type stubSource struct {
	raw      string
	indexErr error
	records  map[string]articles.Record
	fetchErr map[string]error
	fetched  []string
}

func (s *stubSource) FetchIndex(context.Context) ([]articles.IndexEntry, []byte, error) {
	if s.indexErr != nil {
		return nil, nil, s.indexErr
	}
	index, err := articles.DecodeIndex([]byte(s.raw))
	if err != nil {
		return nil, nil, failures.FatalIndex(err)
	}
	return index, []byte(s.raw), nil
}

func (s *stubSource) FetchArticles(_ context.Context, ids []string) []remote.Result {
	out := make([]remote.Result, 0, len(ids))
	for _, id := range ids {
		s.fetched = append(s.fetched, id)
		if err := s.fetchErr[id]; err != nil {
			out = append(out, remote.Result{ID: id, Err: failures.Fetch(id, err)})
			continue
		}
		out = append(out, remote.Result{ID: id, Record: s.records[id]})
	}
	return out
}

func runTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func mustRecord(t *testing.T, pairs ...any) articles.Record {
	t.Helper()
	rec, err := articles.NewRecord(pairs...)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

type fixture struct {
	storage *mirror.MemoryStorage
	mirror  *mirror.Mirror
	log     *history.MemoryLog
	source  *stubSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	storage := mirror.NewMemoryStorage(runTime)
	m := mirror.New(storage, "articles")
	existing := mustRecord(t,
		"articleId", "1",
		"articleTitle", "First",
		"articleContent", "<p>Hello <strong>world</strong></p>",
		"createTime", "2024-01-01 00:00:00",
	)
	if err := m.Save(context.Background(), existing); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &fixture{
		storage: storage,
		mirror:  m,
		log:     history.NewMemoryLog(),
		source: &stubSource{
			raw: indexPayload,
			records: map[string]articles.Record{
				"2": mustRecord(t,
					"articleId", 2,
					"articleTitle", "Second",
					"articleContent", "Plain body",
					"createTime", "2024-02-01 00:00:00",
				),
			},
		},
	}
}

func (f *fixture) pipeline(opts ...Option) *Pipeline {
	base := []Option{
		WithClock(runTime),
		WithFeeds(feeds.DefaultMetadata()),
		WithFeedVerification(true),
		WithReadme(readme.NewGenerator("https://example.com/news/{id}", "articles"), "README.md"),
		WithSnapshots(markup.NewSnapshotWriter(f.storage, "html")),
		WithExporter(export.NewExporter(f.storage, "markdown")),
		WithHistory(history.NewWriter(f.storage, f.log)),
	}
	return New(f.source, f.mirror, f.storage, append(base, opts...)...)
}

func TestRunSyncsMirrorAndOutputs(t *testing.T) {
	f := newFixture(t)
	textfile := filepath.Join(t.TempDir(), "feedmirror.prom")
	p := f.pipeline(WithMetrics(metrics.NewRecorder(), textfile))

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected item errors: %v", report.Errors)
	}
	if report.Planned != 1 || report.Skipped != 1 || report.Fetched != 1 || report.Saved != 1 {
		t.Fatalf("unexpected fetch counts: %+v", report)
	}
	if len(f.source.fetched) != 1 || f.source.fetched[0] != "2" {
		t.Fatalf("expected only id 2 to be fetched, got %v", f.source.fetched)
	}
	if report.Enriched != 2 {
		t.Fatalf("expected both records enriched, got %d", report.Enriched)
	}
	if report.Snapshots != 2 || report.Exported != 2 {
		t.Fatalf("expected two snapshots and exports, got %+v", report)
	}
	if report.Entries != 4 || report.Feeds["articles_latest.xml"] != 2 || report.Feeds["articles_all.xml"] != 2 {
		t.Fatalf("unexpected feed counts: %+v", report.Feeds)
	}
	if report.Committed != 2 || !report.Readme {
		t.Fatalf("expected readme and two commits, got %+v", report)
	}

	ctx := context.Background()
	enriched, err := f.mirror.Load(ctx, "1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !enriched.Has(articles.KeySortingMark) {
		t.Fatalf("expected sortingMark to be merged, got %v", enriched.Keys())
	}
	if _, err := f.storage.Read(ctx, "articles/ArticleMenu.json"); err != nil {
		t.Fatalf("expected index snapshot: %v", err)
	}

	readmeBody, err := f.storage.Read(ctx, "README.md")
	if err != nil {
		t.Fatalf("read readme: %v", err)
	}
	second := strings.Index(string(readmeBody), "[Second](https://example.com/news/2)")
	first := strings.Index(string(readmeBody), "[First](https://example.com/news/1)")
	if second < 0 || first < 0 || second > first {
		t.Fatalf("expected newest first listing, got:\n%s", readmeBody)
	}

	feed, err := f.storage.Read(ctx, "articles_latest.xml")
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if !strings.Contains(string(feed), "Hello") {
		t.Fatalf("expected converted body in feed, got:\n%s", feed)
	}
	if strings.Contains(string(feed), "&lt;p&gt;") {
		t.Fatalf("expected html body to be converted, got:\n%s", feed)
	}

	entries := f.log.Entries()
	if len(entries) != 2 || entries[0].Path != "articles/1.json" || entries[1].Path != "articles/2.json" {
		t.Fatalf("expected oldest first commits, got %+v", entries)
	}
	info, err := f.storage.Stat(ctx, "articles/2.json")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !info.ModTime.Equal(want) {
		t.Fatalf("expected mtime %v, got %v", want, info.ModTime)
	}
	if _, err := os.Stat(textfile); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline().Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	f.source.fetched = nil

	report, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Planned != 0 || len(f.source.fetched) != 0 {
		t.Fatalf("expected nothing to fetch, got %+v", report)
	}
	if report.Enriched != 0 || report.Snapshots != 0 || report.Exported != 0 || report.Committed != 0 || report.Readme {
		t.Fatalf("expected no writes on the second run, got %+v", report)
	}
	if len(f.log.Entries()) != 2 {
		t.Fatalf("expected history to stay at two entries, got %d", len(f.log.Entries()))
	}
}

func TestRunAbortsOnFatalIndex(t *testing.T) {
	f := newFixture(t)
	f.source.indexErr = failures.FatalIndex(errors.New("503"))

	report, err := f.pipeline().Run(context.Background())
	if err == nil || !failures.IsFatal(err) {
		t.Fatalf("expected fatal index error, got %v", err)
	}
	if report.Planned != 0 {
		t.Fatalf("expected no planning after abort, got %+v", report)
	}
	if _, err := f.storage.Read(context.Background(), "articles_latest.xml"); err == nil {
		t.Fatal("expected no feed to be written")
	}
}

func TestRunAbortsOnIndexWithoutIDs(t *testing.T) {
	f := newFixture(t)
	f.source.raw = `[{"articleTitle": "orphan"}]`

	_, err := f.pipeline().Run(context.Background())
	if !failures.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestRunEmptyIndexKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.pipeline().Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before, err := f.storage.Read(ctx, "articles/ArticleMenu.json")
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	f.source.raw = "[]"
	if _, err := f.pipeline().Run(ctx); !failures.IsFatal(err) {
		t.Fatalf("expected fatal index error, got %v", err)
	}
	after, err := f.storage.Read(ctx, "articles/ArticleMenu.json")
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("snapshot replaced by a rejected index:\n%s", after)
	}
}

func TestRunSavesUnderPlannedID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.source.records["2"] = mustRecord(t,
		"articleTitle", "Second",
		"articleContent", "Body without id",
		"createTime", "2024-02-01 00:00:00",
	)

	report, err := f.pipeline().Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Fetched != 1 || report.Saved != 1 || !report.OK() {
		t.Fatalf("expected the document to be saved, got %+v", report)
	}
	if _, err := f.storage.Read(ctx, "articles/2.json"); err != nil {
		t.Fatalf("expected articles/2.json: %v", err)
	}
	paths := map[string]bool{}
	for _, e := range f.log.Entries() {
		paths[e.Path] = true
	}
	if !paths["articles/2.json"] {
		t.Fatalf("expected a history entry for articles/2.json, got %v", paths)
	}

	f.source.fetched = nil
	again, err := f.pipeline().Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Planned != 0 || len(f.source.fetched) != 0 {
		t.Fatalf("expected nothing to be refetched, got %+v fetched=%v", again, f.source.fetched)
	}
}

func TestRunIsolatesFetchFailures(t *testing.T) {
	f := newFixture(t)
	f.source.fetchErr = map[string]error{"2": errors.New("timeout")}

	report, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 || report.Saved != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.Errors) != 1 || !errors.Is(report.Errors[0], failures.ErrFetch) {
		t.Fatalf("expected one fetch error, got %v", report.Errors)
	}
	if report.Feeds["articles_all.xml"] != 1 {
		t.Fatalf("expected the mirrored record to stay published, got %+v", report.Feeds)
	}
}

func TestBuildFeedsOverridesBoundedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"2", "3"} {
		rec := mustRecord(t,
			"articleId", id,
			"articleTitle", "Article "+id,
			"articleContent", "Body "+id,
			"createTime", "2024-0"+id+"-01 00:00:00",
		)
		if err := f.mirror.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	report, err := f.pipeline().BuildFeeds(ctx, 1)
	if err != nil {
		t.Fatalf("BuildFeeds: %v", err)
	}
	if report.Feeds["articles_latest.xml"] != 1 || report.Feeds["articles_all.xml"] != 3 {
		t.Fatalf("unexpected feed counts: %+v", report.Feeds)
	}
	latest, err := f.storage.Read(ctx, "articles_latest.xml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(latest), "Article 3") {
		t.Fatalf("expected the newest article in the bounded feed, got:\n%s", latest)
	}

	if _, err := f.pipeline().BuildFeeds(ctx, -1); !errors.Is(err, feeds.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestReplayHistoryFiltersIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := mustRecord(t,
		"articleId", "2",
		"articleTitle", "Second",
		"createTime", "2024-02-01 00:00:00",
	)
	if err := f.mirror.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err := f.pipeline().ReplayHistory(ctx, []string{"2"})
	if err != nil {
		t.Fatalf("ReplayHistory: %v", err)
	}
	if report.Committed != 1 {
		t.Fatalf("expected one commit, got %+v", report)
	}
	entries := f.log.Entries()
	if len(entries) != 1 || entries[0].Path != "articles/2.json" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestBodyConvertsAndCaches(t *testing.T) {
	p := New(&stubSource{}, nil, nil)
	first := p.Body("<h2>Title</h2><p>Text</p>")
	if !strings.Contains(first, "## Title") || strings.Contains(first, "<p>") {
		t.Fatalf("unexpected body: %q", first)
	}
	if again := p.Body("<h2>Title</h2><p>Text</p>"); again != first {
		t.Fatalf("expected cached body, got %q", again)
	}
	if empty := p.Body(""); empty != "No content available" {
		t.Fatalf("expected placeholder, got %q", empty)
	}
}
