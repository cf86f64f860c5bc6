package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// ErrMissingID is returned when exporting a document without id.
var ErrMissingID = errors.New("export: document id required")

// Exporter stores documents as <dir>/<id>.md.
type Exporter struct {
	storage interfaces.MirrorStorage
	dir     string
	logger  interfaces.Logger
}

// Option customises an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter returns an exporter writing below dir.
func NewExporter(storage interfaces.MirrorStorage, dir string, opts ...Option) *Exporter {
	e := &Exporter{storage: storage, dir: dir, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Path returns the export location for id.
func (e *Exporter) Path(id string) string {
	return path.Join(e.dir, id+".md")
}

// Export writes doc unless the stored export already has the same front
// matter and body checksum. created, when non-zero, becomes the file
// modification time. It reports whether the file was written.
func (e *Exporter) Export(ctx context.Context, doc Document, created time.Time) (bool, error) {
	if doc.ID == "" {
		return false, ErrMissingID
	}
	target := e.Path(doc.ID)
	doc.Checksum = Checksum(doc.Body)

	existing, err := e.storage.Read(ctx, target)
	switch {
	case err == nil:
		if stored, perr := Parse(existing); perr == nil && stored.FrontMatter == doc.FrontMatter {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("export: read %s: %w", target, err)
	}

	data, err := Marshal(doc)
	if err != nil {
		return false, err
	}
	if err := e.storage.Write(ctx, target, data); err != nil {
		return false, fmt.Errorf("export: write %s: %w", target, err)
	}
	if !created.IsZero() {
		if err := e.storage.SetModTime(ctx, target, created); err != nil {
			return true, fmt.Errorf("export: set mtime %s: %w", target, err)
		}
	}
	logging.WithArticleContext(e.logger, doc.ID, "export").Debug("export.written", "path", target)
	return true, nil
}
