// Package readme maintains the generated article listing at the end of the
// repository README.
package readme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

const (
	// Heading opens the generated section. Everything after it is replaced.
	Heading = "## Articles"
	// DefaultTitle is used for articles without title.
	DefaultTitle = "No Title"
)

// Item is one listed article.
type Item struct {
	ID         string
	Title      string
	CreateTime string
}

// ItemsFromIndex maps index entries to listing items.
func ItemsFromIndex(index []articles.IndexEntry) []Item {
	items := make([]Item, 0, len(index))
	for _, entry := range index {
		items = append(items, Item{ID: entry.ID(), Title: entry.Title(), CreateTime: entry.CreateTime()})
	}
	return items
}

// Generator renders the section.
type Generator struct {
	// ArticleURL is the public article page; "{id}" is replaced with the id.
	ArticleURL string
	// MirrorDir is the directory holding the JSON records, relative to the
	// README.
	MirrorDir string
}

// NewGenerator returns a generator linking to articleURL and mirrorDir.
func NewGenerator(articleURL, mirrorDir string) *Generator {
	return &Generator{ArticleURL: articleURL, MirrorDir: mirrorDir}
}

// Render returns existing with the section rebuilt from items. When the
// heading is missing it is appended.
func (g *Generator) Render(existing string, items []Item) string {
	lines := strings.SplitAfter(existing, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	found := false
	for _, line := range lines {
		b.WriteString(line)
		if strings.TrimSpace(line) == Heading {
			if !strings.HasSuffix(line, "\n") {
				b.WriteString("\n")
			}
			found = true
			break
		}
	}
	if !found {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString(Heading + "\n")
	}

	b.WriteString("\n")
	for _, item := range sortItems(items) {
		title := item.Title
		if title == "" {
			title = DefaultTitle
		}
		fmt.Fprintf(&b, "- [%s](%s) [[json]](%s)\n", title, g.articleLink(item.ID), path.Join(g.dir(), item.ID+".json"))
	}

	b.WriteString("\n## Articles Directory\n\n")
	fmt.Fprintf(&b, "The articles are saved in the `%s` directory.\n", g.dir())
	fmt.Fprintf(&b, "You can view them [here](%s).\n", g.dir())
	return b.String()
}

// Update rewrites the README at p through storage. A missing README is
// created. It reports whether the content changed.
func (g *Generator) Update(ctx context.Context, storage interfaces.MirrorStorage, p string, items []Item) (bool, error) {
	current, err := storage.Read(ctx, p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("readme: read %s: %w", p, err)
	}
	next := []byte(g.Render(string(current), items))
	if bytes.Equal(current, next) {
		return false, nil
	}
	if err := storage.Write(ctx, p, next); err != nil {
		return false, fmt.Errorf("readme: write %s: %w", p, err)
	}
	return true, nil
}

func (g *Generator) dir() string {
	if g.MirrorDir == "" {
		return "articles"
	}
	return strings.Trim(g.MirrorDir, "/")
}

func (g *Generator) articleLink(id string) string {
	return strings.ReplaceAll(g.ArticleURL, "{id}", id)
}

// sortItems orders items by createTime text, newest first. The wire format
// sorts lexically in time order.
func sortItems(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreateTime > out[j].CreateTime
	})
	return out
}
