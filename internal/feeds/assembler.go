// Package feeds assembles Atom documents from mirrored article records.
package feeds

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/identity"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/normalize"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// LatestWindow is the number of entries kept in the bounded feed.
const LatestWindow = 20

// ErrInvalidWindow is returned for negative window sizes.
var ErrInvalidWindow = errors.New("feeds: window must be zero or positive")

// ContentFunc turns a raw article body into the markdown embedded in an
// entry. The result is escaped by the document renderer.
type ContentFunc func(raw string) string

// Category is the Atom category of an entry.
type Category struct {
	Term  string
	Label string
}

// Entry is one rendered feed item.
type Entry struct {
	ID        string
	Title     string
	Link      string
	Content   string
	Published *time.Time
	Updated   time.Time
	Category  Category
}

// Document is a complete feed ready to be rendered.
type Document struct {
	Meta    Metadata
	File    string
	Updated time.Time
	Year    int
	Entries []Entry
}

// Variant names one published feed file and its window.
type Variant struct {
	File   string
	Window int
}

// DefaultVariants returns the bounded and full feed files.
func DefaultVariants() []Variant {
	return []Variant{
		{File: "articles_latest.xml", Window: LatestWindow},
		{File: "articles_all.xml", Window: 0},
	}
}

// Assembler builds feed documents.
type Assembler struct {
	meta    Metadata
	content ContentFunc
	now     func() time.Time
	logger  interfaces.Logger
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithContentFunc overrides how raw bodies become entry content.
func WithContentFunc(fn ContentFunc) Option {
	return func(a *Assembler) {
		if fn != nil {
			a.content = fn
		}
	}
}

// WithClock overrides the clock used for the empty-feed timestamp and the
// rights year.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the assembler logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler returns an assembler for meta.
func NewAssembler(meta Metadata, opts ...Option) *Assembler {
	a := &Assembler{
		meta:    meta,
		content: normalize.Normalize,
		now:     time.Now,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Assemble builds a document from records. A zero window keeps every record.
func (a *Assembler) Assemble(records []articles.Record, window int) (Document, error) {
	docs, err := a.Variants(records, Variant{Window: window})
	if err != nil {
		return Document{}, err
	}
	return docs[0], nil
}

// Variants builds one document per variant from a single sorted sequence.
// Entry content is computed once per record.
func (a *Assembler) Variants(records []articles.Record, variants ...Variant) ([]Document, error) {
	widest := 0
	for _, v := range variants {
		if v.Window < 0 {
			return nil, ErrInvalidWindow
		}
		if v.Window == 0 {
			widest = -1
		} else if widest >= 0 && v.Window > widest {
			widest = v.Window
		}
	}

	sorted := SortRecords(records)
	now := a.now().UTC()
	latest := now
	if len(sorted) > 0 {
		if created, err := sorted[0].Created(); err == nil {
			latest = created
		}
	}

	limit := len(sorted)
	if widest >= 0 && widest < limit {
		limit = widest
	}
	entries := make([]Entry, 0, limit)
	for _, record := range sorted[:limit] {
		entries = append(entries, a.entry(record, latest))
	}

	docs := make([]Document, 0, len(variants))
	for _, v := range variants {
		slice := entries
		if v.Window > 0 && v.Window < len(slice) {
			slice = slice[:v.Window]
		}
		docs = append(docs, Document{
			Meta:    a.meta,
			File:    v.File,
			Updated: latest,
			Year:    now.Year(),
			Entries: slice,
		})
		a.logger.Debug("feeds.assembled", "file", v.File, "window", v.Window, "entries", len(slice))
	}
	return docs, nil
}

func (a *Assembler) entry(record articles.Record, latest time.Time) Entry {
	id := record.ID()
	title := record.Title()
	e := Entry{
		ID:       identity.ArticleURN(id, title, record.CreateTime()),
		Title:    title,
		Link:     a.meta.ArticleLink(id),
		Content:  a.content(record.Content()),
		Updated:  latest,
		Category: a.category(record.TypeName()),
	}
	if strings.TrimSpace(e.Content) == "" {
		e.Content = normalize.Placeholder
	}
	if created, err := record.Created(); err == nil {
		e.Published = &created
		e.Updated = created
	} else if record.CreateTime() != "" {
		logging.WithArticleContext(a.logger, id, "feed_entry").Warn("feeds.create_time_invalid", "value", record.CreateTime(), "error", err)
	}
	return e
}

func (a *Assembler) category(name string) Category {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(a.meta.DefaultCategory)
	}
	if name == "" {
		return Category{}
	}
	term, err := slug.Normalize(name)
	if err != nil || term == "" {
		term = name
	}
	return Category{Term: term, Label: name}
}

// SortRecords returns a copy of records ordered by createTime, newest first.
// Records whose createTime does not parse keep their relative order after
// every dated record.
func SortRecords(records []articles.Record) []articles.Record {
	type keyed struct {
		record  articles.Record
		created time.Time
		ok      bool
	}
	items := make([]keyed, len(records))
	for i, r := range records {
		created, err := r.Created()
		items[i] = keyed{record: r, created: created, ok: err == nil}
	}
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i], items[j]
		switch {
		case left.ok && right.ok:
			return left.created.After(right.created)
		case left.ok:
			return true
		default:
			return false
		}
	})
	out := make([]articles.Record, len(items))
	for i, item := range items {
		out[i] = item.record
	}
	return out
}
