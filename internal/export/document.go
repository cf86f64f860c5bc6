// Package export writes each article as a markdown file with YAML front
// matter, next to the JSON mirror.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the metadata header of an exported article.
type FrontMatter struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Created  string `yaml:"created,omitempty"`
	Category string `yaml:"category,omitempty"`
	Source   string `yaml:"source,omitempty"`
	Checksum string `yaml:"checksum"`
}

// Document is a parsed or pending export.
type Document struct {
	FrontMatter
	Body string
}

// Checksum returns the hex SHA-256 of body.
func Checksum(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Marshal renders doc with a "---" delimited YAML header. The checksum is
// recomputed from the body.
func Marshal(doc Document) ([]byte, error) {
	doc.Checksum = Checksum(doc.Body)

	var header bytes.Buffer
	enc := yaml.NewEncoder(&header)
	enc.SetIndent(2)
	if err := enc.Encode(doc.FrontMatter); err != nil {
		return nil, fmt.Errorf("export: encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("export: encode front matter: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("---\n")
	out.Write(header.Bytes())
	out.WriteString("---\n\n")
	out.WriteString(strings.TrimRight(doc.Body, "\n"))
	out.WriteString("\n")
	return out.Bytes(), nil
}

// Parse reads an exported file back.
func Parse(data []byte) (Document, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return Document{}, fmt.Errorf("export: parse front matter: %w", err)
	}
	return Document{
		FrontMatter: meta,
		Body:        strings.TrimRight(strings.TrimLeft(string(body), "\n"), "\n"),
	}, nil
}
