package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"path"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// Renderer turns normalised markdown into a standalone HTML document. Raw
// HTML inside the markdown is omitted from the output.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer returns a renderer with GFM extensions enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Fragment renders markdown to an HTML fragment.
func (r *Renderer) Fragment(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markup: render markdown: %w", err)
	}
	return buf.String(), nil
}

// Document renders markdown inside a minimal HTML page titled title.
func (r *Renderer) Document(title, markdown string) ([]byte, error) {
	body, err := r.Fragment(markdown)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(title))
	buf.WriteString("</head>\n<body>\n<article>\n")
	buf.WriteString(body)
	buf.WriteString("</article>\n</body>\n</html>\n")
	return buf.Bytes(), nil
}

// Snapshot describes one article page to persist.
type Snapshot struct {
	ID       string
	Title    string
	Markdown string
	// Created is applied as the file modification time when non-zero.
	Created time.Time
}

// SnapshotWriter persists rendered pages as <dir>/<id>.html. Existing pages
// are never rewritten.
type SnapshotWriter struct {
	storage  interfaces.MirrorStorage
	renderer *Renderer
	dir      string
	logger   interfaces.Logger
}

// SnapshotOption customises a SnapshotWriter.
type SnapshotOption func(*SnapshotWriter)

// WithSnapshotLogger sets the logger used for skipped and written pages.
func WithSnapshotLogger(logger interfaces.Logger) SnapshotOption {
	return func(w *SnapshotWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRenderer overrides the markdown renderer.
func WithRenderer(renderer *Renderer) SnapshotOption {
	return func(w *SnapshotWriter) {
		if renderer != nil {
			w.renderer = renderer
		}
	}
}

// NewSnapshotWriter returns a writer storing pages under dir.
func NewSnapshotWriter(storage interfaces.MirrorStorage, dir string, opts ...SnapshotOption) *SnapshotWriter {
	w := &SnapshotWriter{
		storage:  storage,
		renderer: NewRenderer(),
		dir:      dir,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Path returns the page location for id.
func (w *SnapshotWriter) Path(id string) string {
	return path.Join(w.dir, id+".html")
}

// Write renders and stores the snapshot unless a page already exists. It
// reports whether a page was written.
func (w *SnapshotWriter) Write(ctx context.Context, snap Snapshot) (bool, error) {
	if snap.ID == "" {
		return false, errors.New("markup: snapshot id required")
	}
	target := w.Path(snap.ID)
	logger := logging.WithArticleContext(w.logger, snap.ID, "snapshot")

	if _, err := w.storage.Stat(ctx, target); err == nil {
		logger.Debug("snapshot.exists", "path", target)
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("markup: stat %s: %w", target, err)
	}

	page, err := w.renderer.Document(snap.Title, snap.Markdown)
	if err != nil {
		return false, err
	}
	if err := w.storage.Write(ctx, target, page); err != nil {
		return false, fmt.Errorf("markup: write %s: %w", target, err)
	}
	if !snap.Created.IsZero() {
		if err := w.storage.SetModTime(ctx, target, snap.Created); err != nil {
			return true, fmt.Errorf("markup: set mtime %s: %w", target, err)
		}
	}
	logger.Info("snapshot.written", "path", target)
	return true, nil
}
