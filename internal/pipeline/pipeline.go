// Package pipeline sequences one mirror run: remote index, planning, fetch,
// persistence, enrichment, derived outputs, feeds and history.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/export"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/feeds"
	"github.com/goliatone/go-feedmirror/internal/history"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/markup"
	"github.com/goliatone/go-feedmirror/internal/metrics"
	"github.com/goliatone/go-feedmirror/internal/mirror"
	"github.com/goliatone/go-feedmirror/internal/normalize"
	"github.com/goliatone/go-feedmirror/internal/readme"
	"github.com/goliatone/go-feedmirror/internal/reconcile"
	"github.com/goliatone/go-feedmirror/internal/remote"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// Source is the remote side of a run.
type Source interface {
	FetchIndex(ctx context.Context) ([]articles.IndexEntry, []byte, error)
	FetchArticles(ctx context.Context, ids []string) []remote.Result
}

var _ Source = (*remote.Client)(nil)

// Report summarises a run.
type Report struct {
	Planned   int
	Fetched   int
	Failed    int
	Saved     int
	Skipped   int
	Enriched  int
	Snapshots int
	Exported  int
	Entries   int
	Committed int
	Readme    bool
	Feeds     map[string]int
	Errors    []error
	Duration  time.Duration
}

// OK reports whether the run finished without item errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Pipeline wires the run collaborators. Optional outputs stay off until their
// option is supplied.
type Pipeline struct {
	source  Source
	mirror  *mirror.Mirror
	storage interfaces.MirrorStorage

	converter  *markup.Converter
	normalizer *normalize.Pipeline
	meta       feeds.Metadata
	variants   []feeds.Variant
	verify     bool

	readme     *readme.Generator
	readmePath string
	snapshots  *markup.SnapshotWriter
	exporter   *export.Exporter
	history    *history.Writer

	metrics     *metrics.Recorder
	metricsPath string

	logger interfaces.Logger
	now    func() time.Time

	mu     sync.Mutex
	bodies map[string]string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the clock used for durations and feed timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithFeeds enables feed publication with meta for the given variants. Without
// variants the bounded and full defaults are published.
func WithFeeds(meta feeds.Metadata, variants ...feeds.Variant) Option {
	return func(p *Pipeline) {
		p.meta = meta
		if len(variants) == 0 {
			variants = feeds.DefaultVariants()
		}
		p.variants = append([]feeds.Variant(nil), variants...)
	}
}

// WithFeedVerification parses every rendered feed back before it is written.
func WithFeedVerification(enabled bool) Option {
	return func(p *Pipeline) {
		p.verify = enabled
	}
}

// WithNormalizer replaces the default markdown normaliser.
func WithNormalizer(n *normalize.Pipeline) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.normalizer = n
		}
	}
}

// WithConverter replaces the HTML to markdown converter.
func WithConverter(c *markup.Converter) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.converter = c
		}
	}
}

// WithReadme rewrites the article section of the README at path.
func WithReadme(gen *readme.Generator, path string) Option {
	return func(p *Pipeline) {
		p.readme = gen
		p.readmePath = path
	}
}

// WithSnapshots renders one HTML page per article.
func WithSnapshots(w *markup.SnapshotWriter) Option {
	return func(p *Pipeline) {
		p.snapshots = w
	}
}

// WithExporter writes one markdown document per article.
func WithExporter(e *export.Exporter) Option {
	return func(p *Pipeline) {
		p.exporter = e
	}
}

// WithHistory records mirror files in a revision log.
func WithHistory(w *history.Writer) Option {
	return func(p *Pipeline) {
		p.history = w
	}
}

// WithMetrics records run metrics and, when path is set, writes them as a
// textfile collector file once the run ends.
func WithMetrics(rec *metrics.Recorder, path string) Option {
	return func(p *Pipeline) {
		p.metrics = rec
		p.metricsPath = path
	}
}

// New returns a pipeline reading from source into m. storage receives the
// README and the feed files.
func New(source Source, m *mirror.Mirror, storage interfaces.MirrorStorage, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		mirror:     m,
		storage:    storage,
		converter:  markup.NewConverter(),
		normalizer: normalize.New(),
		logger:     logging.NoOp(),
		now:        time.Now,
		bodies:     map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run executes a full sync. Only a fatal index failure aborts; every other
// error is isolated to its item and collected in the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.now()
	report := Report{}

	index, raw, err := p.source.FetchIndex(ctx)
	if err != nil {
		return p.abort(report, start, err)
	}
	existing, err := p.mirror.IDs(ctx)
	if err != nil {
		return p.abort(report, start, fmt.Errorf("pipeline: list mirror: %w", err))
	}
	// An index that cannot be planned must not replace the previous snapshot.
	planned, err := reconcile.Plan(index, existing)
	if err != nil {
		return p.abort(report, start, err)
	}
	if err := p.mirror.SaveIndex(ctx, raw); err != nil {
		p.fail(&report, "index", err)
	}
	report.Planned = len(planned)
	report.Skipped = len(reconcile.IDs(index)) - len(planned)
	p.metrics.Planned(report.Planned)
	p.logger.Info("pipeline.planned", "planned", report.Planned, "skipped", report.Skipped)

	for _, res := range p.source.FetchArticles(ctx, planned) {
		if res.Err != nil {
			report.Failed++
			p.fail(&report, res.ID, res.Err)
			continue
		}
		report.Fetched++
		if err := p.mirror.SaveAs(ctx, res.ID, res.Record); err != nil {
			p.fail(&report, res.ID, err)
			continue
		}
		report.Saved++
	}
	p.metrics.Fetched(report.Fetched, report.Failed)
	p.metrics.Saved(report.Saved)

	stored := p.enrich(ctx, &report, reconcile.ByID(index))

	if p.readme != nil {
		changed, err := p.readme.Update(ctx, p.storage, p.readmePath, readme.ItemsFromIndex(index))
		if err != nil {
			p.fail(&report, "readme", err)
		}
		report.Readme = changed
	}

	p.derive(ctx, &report, stored)
	p.publish(ctx, &report, recordsOf(stored), p.variants)
	p.record(ctx, &report, stored)

	return p.finish(report, start), nil
}

// BuildFeeds republishes the feeds from the mirror alone. A positive window
// replaces the window of every bounded variant.
func (p *Pipeline) BuildFeeds(ctx context.Context, window int) (Report, error) {
	start := p.now()
	report := Report{}
	if window < 0 {
		return report, feeds.ErrInvalidWindow
	}
	records := recordsOf(p.load(ctx, &report))
	variants := make([]feeds.Variant, 0, len(p.variants))
	for _, v := range p.variants {
		if window > 0 && v.Window > 0 {
			v.Window = window
		}
		variants = append(variants, v)
	}
	p.publish(ctx, &report, records, variants)
	return p.finish(report, start), nil
}

// ReplayHistory runs the history batch for the mirrored records with the
// given ids, or for every record when ids is empty.
func (p *Pipeline) ReplayHistory(ctx context.Context, ids []string) (Report, error) {
	start := p.now()
	report := Report{}
	stored := p.load(ctx, &report)
	if len(ids) > 0 {
		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		filtered := stored[:0]
		for _, s := range stored {
			if _, ok := wanted[s.ID]; ok {
				filtered = append(filtered, s)
			}
		}
		stored = filtered
	}
	p.record(ctx, &report, stored)
	return p.finish(report, start), nil
}

func (p *Pipeline) load(ctx context.Context, report *Report) []mirror.Stored {
	stored, errs := p.mirror.LoadStored(ctx)
	for _, err := range errs {
		p.fail(report, "load", err)
	}
	return stored
}

func recordsOf(stored []mirror.Stored) []articles.Record {
	out := make([]articles.Record, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.Record)
	}
	return out
}

// enrich folds index metadata into every mirrored record. Only records whose
// fields changed are rewritten.
func (p *Pipeline) enrich(ctx context.Context, report *Report, byID map[string]articles.IndexEntry) []mirror.Stored {
	stored := p.load(ctx, report)
	for i, s := range stored {
		entry, ok := byID[s.ID]
		if !ok {
			continue
		}
		merged, changed := reconcile.Merge(s.Record, entry)
		if !changed {
			continue
		}
		if err := p.mirror.SaveAs(ctx, s.ID, merged); err != nil {
			p.fail(report, s.ID, err)
			continue
		}
		stored[i].Record = merged
		report.Enriched++
	}
	p.metrics.Enriched(report.Enriched)
	return stored
}

// derive writes the per-article snapshot pages and markdown exports.
func (p *Pipeline) derive(ctx context.Context, report *Report, stored []mirror.Stored) {
	if p.snapshots == nil && p.exporter == nil {
		return
	}
	for _, s := range stored {
		id, record := s.ID, s.Record
		body := p.Body(record.Content())
		created, _ := record.Created()
		if p.snapshots != nil {
			written, err := p.snapshots.Write(ctx, markup.Snapshot{
				ID:       id,
				Title:    record.Title(),
				Markdown: body,
				Created:  created,
			})
			if err != nil {
				p.fail(report, id, err)
			} else if written {
				report.Snapshots++
			}
		}
		if p.exporter != nil {
			written, err := p.exporter.Export(ctx, export.Document{
				FrontMatter: export.FrontMatter{
					ID:       id,
					Title:    record.Title(),
					Created:  record.CreateTime(),
					Category: record.TypeName(),
					Source:   p.meta.ArticleLink(id),
				},
				Body: body,
			}, created)
			if err != nil {
				p.fail(report, id, err)
			} else if written {
				report.Exported++
			}
		}
	}
}

// publish assembles, optionally verifies and writes each feed variant.
func (p *Pipeline) publish(ctx context.Context, report *Report, records []articles.Record, variants []feeds.Variant) {
	if len(variants) == 0 {
		return
	}
	assembler := feeds.NewAssembler(p.meta,
		feeds.WithContentFunc(p.Body),
		feeds.WithClock(p.now),
		feeds.WithLogger(p.logger),
	)
	docs, err := assembler.Variants(records, variants...)
	if err != nil {
		p.fail(report, "feeds", err)
		return
	}
	if report.Feeds == nil {
		report.Feeds = make(map[string]int, len(docs))
	}
	for _, doc := range docs {
		if p.verify {
			if err := feeds.Verify(doc); err != nil {
				p.fail(report, doc.File, err)
				continue
			}
		}
		if err := p.storage.Write(ctx, doc.File, doc.XML()); err != nil {
			p.fail(report, doc.File, failures.Encode(doc.File, err))
			continue
		}
		report.Feeds[doc.File] = len(doc.Entries)
		report.Entries += len(doc.Entries)
		p.metrics.FeedEntries(doc.File, len(doc.Entries))
		p.logger.Info("feeds.written", "file", doc.File, "entries", len(doc.Entries))
	}
}

// record drives the mirror files through the history writer.
func (p *Pipeline) record(ctx context.Context, report *Report, stored []mirror.Stored) {
	if p.history == nil {
		return
	}
	items := make([]history.Item, 0, len(stored))
	for _, s := range stored {
		items = append(items, history.Item{
			ID:         s.ID,
			Path:       p.mirror.Path(s.ID),
			CreateTime: s.Record.CreateTime(),
		})
	}
	batch := p.history.Batch(ctx, items)
	report.Committed += batch.Committed
	for _, err := range batch.Errors {
		p.fail(report, "history", err)
	}
	p.metrics.Committed(batch.Committed)
	p.logger.Info("history.batch",
		"considered", batch.Considered,
		"candidates", batch.Candidates,
		"committed", batch.Committed,
		"existing", batch.Existing,
	)
}

// Body returns the normalised markdown for a raw article body. HTML bodies
// are converted first; results are cached for the lifetime of the pipeline.
func (p *Pipeline) Body(raw string) string {
	p.mu.Lock()
	if body, ok := p.bodies[raw]; ok {
		p.mu.Unlock()
		return body
	}
	p.mu.Unlock()

	md, err := p.converter.ToMarkdown(raw)
	if err != nil {
		p.logger.Warn("markup.convert_failed", "error", err)
		md = raw
	}
	body := p.normalizer.Run(md)

	p.mu.Lock()
	p.bodies[raw] = body
	p.mu.Unlock()
	return body
}

func (p *Pipeline) fail(report *Report, target string, err error) {
	report.Errors = append(report.Errors, err)
	kind := failures.Kind(err)
	if kind == "" {
		kind = "other"
	}
	p.metrics.Error(kind)
	p.logger.Warn("pipeline.item_failed", "target", target, "kind", kind, "error", err)
}

func (p *Pipeline) abort(report Report, start time.Time, err error) (Report, error) {
	kind := failures.Kind(err)
	if kind == "" {
		kind = "other"
	}
	p.metrics.Error(kind)
	p.logger.Error("pipeline.aborted", "kind", kind, "error", err)
	report.Errors = append(report.Errors, err)
	report.Duration = p.now().Sub(start)
	p.metrics.RunFinished(report.Duration, p.now(), false)
	p.flushMetrics()
	return report, err
}

func (p *Pipeline) finish(report Report, start time.Time) Report {
	report.Duration = p.now().Sub(start)
	p.metrics.RunFinished(report.Duration, p.now(), report.OK())
	p.flushMetrics()
	p.logger.Info("pipeline.finished",
		"planned", report.Planned,
		"fetched", report.Fetched,
		"failed", report.Failed,
		"saved", report.Saved,
		"enriched", report.Enriched,
		"entries", report.Entries,
		"committed", report.Committed,
		"errors", len(report.Errors),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report
}

func (p *Pipeline) flushMetrics() {
	if p.metrics == nil || p.metricsPath == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.metricsPath); err != nil {
		p.logger.Warn("metrics.write_failed", "path", p.metricsPath, "error", err)
	}
}
