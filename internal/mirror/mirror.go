// Package mirror persists article records and the index snapshot as one JSON
// file per article below a mirror directory.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// IndexFile is the name of the index snapshot kept next to the articles.
const IndexFile = "ArticleMenu.json"

const recordExt = ".json"

// ErrRecordWithoutID is returned when saving a record that carries no id.
var ErrRecordWithoutID = errors.New("mirror: record has no id")

// Mirror is the local article store.
type Mirror struct {
	storage interfaces.MirrorStorage
	dir     string
	logger  interfaces.Logger
}

// Option customises a Mirror.
type Option func(*Mirror)

// WithLogger sets the mirror logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Mirror) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New returns a mirror over storage rooted at dir.
func New(storage interfaces.MirrorStorage, dir string, opts ...Option) *Mirror {
	m := &Mirror{storage: storage, dir: dir, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Dir returns the mirror directory.
func (m *Mirror) Dir() string { return m.dir }

// Path returns the storage path of the record with id.
func (m *Mirror) Path(id string) string {
	return path.Join(m.dir, id+recordExt)
}

// IndexPath returns the storage path of the index snapshot.
func (m *Mirror) IndexPath() string {
	return path.Join(m.dir, IndexFile)
}

// IDs returns the ids of every stored record.
func (m *Mirror) IDs(ctx context.Context) (map[string]struct{}, error) {
	files, err := m.recordFiles(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(files))
	for _, f := range files {
		ids[strings.TrimSuffix(f.Name, recordExt)] = struct{}{}
	}
	return ids, nil
}

func (m *Mirror) recordFiles(ctx context.Context) ([]interfaces.FileInfo, error) {
	files, err := m.storage.List(ctx, m.dir)
	if err != nil {
		return nil, fmt.Errorf("mirror: list %s: %w", m.dir, err)
	}
	out := files[:0]
	for _, f := range files {
		if f.Name == IndexFile || !strings.HasSuffix(f.Name, recordExt) || strings.HasPrefix(f.Name, ".") {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Load reads and decodes the record with id.
func (m *Mirror) Load(ctx context.Context, id string) (articles.Record, error) {
	data, err := m.storage.Read(ctx, m.Path(id))
	if err != nil {
		return articles.Record{}, fmt.Errorf("mirror: read %s: %w", id, err)
	}
	record, err := articles.DecodeRecord(data)
	if err != nil {
		return articles.Record{}, fmt.Errorf("mirror: decode %s: %w", id, err)
	}
	return record, nil
}

// Stored is a mirrored record with the id its file is named after. The two
// differ when the remote document omits or rewrites its own id.
type Stored struct {
	ID     string
	Record articles.Record
}

// LoadStored decodes every stored record. Files that cannot be read or
// decoded are skipped and reported in the returned error slice.
func (m *Mirror) LoadStored(ctx context.Context) ([]Stored, []error) {
	files, err := m.recordFiles(ctx)
	if err != nil {
		return nil, []error{err}
	}
	stored := make([]Stored, 0, len(files))
	var errs []error
	for _, f := range files {
		id := strings.TrimSuffix(f.Name, recordExt)
		record, err := m.Load(ctx, id)
		if err != nil {
			logging.WithArticleContext(m.logger, id, "load").Warn("mirror.load_failed", "error", err)
			errs = append(errs, err)
			continue
		}
		stored = append(stored, Stored{ID: id, Record: record})
	}
	return stored, errs
}

// LoadAll decodes every stored record, see LoadStored.
func (m *Mirror) LoadAll(ctx context.Context) ([]articles.Record, []error) {
	stored, errs := m.LoadStored(ctx)
	records := make([]articles.Record, 0, len(stored))
	for _, s := range stored {
		records = append(records, s.Record)
	}
	return records, errs
}

// Save writes record to <dir>/<id>.json using the id it carries.
func (m *Mirror) Save(ctx context.Context, record articles.Record) error {
	return m.SaveAs(ctx, record.ID(), record)
}

// SaveAs writes record to <dir>/<id>.json. The record body is stored as is,
// whatever id it carries.
func (m *Mirror) SaveAs(ctx context.Context, id string, record articles.Record) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return failures.Encode("?", ErrRecordWithoutID)
	}
	data, err := articles.Encode(record)
	if err != nil {
		return failures.Encode(id, err)
	}
	if err := m.storage.Write(ctx, m.Path(id), data); err != nil {
		return failures.Encode(id, err)
	}
	logging.WithArticleContext(m.logger, id, "save").Debug("mirror.saved", "bytes", len(data))
	return nil
}

// SaveIndex stores the raw index payload re-indented with two spaces. Key
// order and string contents are kept as received.
func (m *Mirror) SaveIndex(ctx context.Context, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return failures.Encode(IndexFile, err)
	}
	if err := m.storage.Write(ctx, m.IndexPath(), buf.Bytes()); err != nil {
		return failures.Encode(IndexFile, err)
	}
	return nil
}

// ModTime returns the modification time of the record file for id.
func (m *Mirror) ModTime(ctx context.Context, id string) (time.Time, error) {
	info, err := m.storage.Stat(ctx, m.Path(id))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

// SetModTime sets the modification time of the record file for id.
func (m *Mirror) SetModTime(ctx context.Context, id string, t time.Time) error {
	return m.storage.SetModTime(ctx, m.Path(id), t)
}
