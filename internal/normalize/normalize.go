// Package normalize rewrites raw article bodies into canonical markdown.
//
// The pipeline is a fixed list of pure text stages. Each stage is total: an
// input it does not recognise passes through unchanged. Normalize is
// idempotent, Normalize(Normalize(s)) == Normalize(s).
package normalize

import (
	"html"
	"strings"
)

// Placeholder replaces bodies that normalise to nothing so a feed entry never
// carries empty content.
const Placeholder = "No content available"

// Stage is one named text transform.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline applies its stages in order.
type Pipeline struct {
	stages      []Stage
	placeholder string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPlaceholder overrides the text used for empty results.
func WithPlaceholder(text string) Option {
	return func(p *Pipeline) {
		if strings.TrimSpace(text) != "" {
			p.placeholder = text
		}
	}
}

// WithStages replaces the default stage list.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) {
		p.stages = stages
	}
}

// New returns a pipeline running the default stages.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:      Stages(),
		placeholder: Placeholder,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run normalises raw.
func (p *Pipeline) Run(raw string) string {
	text := foldLineEndings(raw)
	for _, stage := range p.stages {
		text = stage.Apply(text)
	}
	if strings.TrimSpace(text) == "" {
		return p.placeholder
	}
	return text
}

// Stages returns the default stage list in application order.
func Stages() []Stage {
	return []Stage{
		{Name: "empty_code_blocks", Apply: RemoveEmptyCodeBlocks},
		{Name: "bracket_headers", Apply: BracketHeaders},
		{Name: "star_folding", Apply: FoldStars},
		{Name: "ball_sections", Apply: BallSections},
		{Name: "reference_marks", Apply: ReferenceMarks},
		{Name: "circled_numerals", Apply: CircledNumerals},
		{Name: "escaped_stars", Apply: EscapedStars},
		{Name: "format", Apply: Format},
		{Name: "simplify_links", Apply: SimplifyLinks},
		{Name: "whitespace", Apply: CanonicalWhitespace},
	}
}

var defaultPipeline = New()

// Normalize runs the default pipeline on raw.
func Normalize(raw string) string {
	return defaultPipeline.Run(raw)
}

// Escape makes normalised text safe to embed as XML/HTML text content.
// Characters XML 1.0 does not allow are dropped.
func Escape(text string) string {
	return html.EscapeString(StripInvalidXML(text))
}

// StripInvalidXML removes runes outside the XML 1.0 Char production.
func StripInvalidXML(text string) string {
	if strings.IndexFunc(text, invalidXMLRune) < 0 {
		return text
	}
	return strings.Map(func(r rune) rune {
		if invalidXMLRune(r) {
			return -1
		}
		return r
	}, text)
}

func invalidXMLRune(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF:
		return true
	case r == 0xFFFE, r == 0xFFFF:
		return true
	case r > 0x10FFFF:
		return true
	}
	return false
}

func foldLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
