// Package markup converts CMS HTML bodies to markdown and renders normalised
// markdown back to HTML snapshots.
package markup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Converter turns an article body into markdown. Headings use the ATX style,
// pre and code tags are stripped to their text, and literal asterisks and
// underscores in text are backslash-escaped.
type Converter struct {
	policy *bluemonday.Policy
}

// NewConverter returns a converter sanitising input with a UGC policy.
func NewConverter() *Converter {
	p := bluemonday.UGCPolicy()
	p.AllowElements("article", "section", "div", "span", "figure", "figcaption")
	p.AllowElements("p", "br", "hr", "blockquote", "pre", "code", "ul", "ol", "li")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6", "strong", "b", "em", "i")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("title").OnElements("a", "img")
	p.AllowAttrs("start").OnElements("ol")
	return &Converter{policy: p}
}

var (
	whitespaceRun = regexp.MustCompile(`[\t \r\n]+`)
	blankLineRun  = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	textEscaper   = strings.NewReplacer(`*`, `\*`, `_`, `\_`)
)

// ToMarkdown converts raw. Bodies without markup are treated as plain text
// and keep their line breaks.
func (c *Converter) ToMarkdown(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	if !strings.Contains(raw, "<") {
		return strings.TrimSpace(textEscaper.Replace(raw)), nil
	}

	clean := c.policy.Sanitize(raw)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return "", fmt.Errorf("markup: parse html: %w", err)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	w := &walker{}
	var b strings.Builder
	for _, n := range root.Nodes {
		b.WriteString(w.children(n))
	}
	out := blankLineRun.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out), nil
}

type walker struct {
	pre int
}

func (w *walker) children(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(w.node(child))
	}
	return b.String()
}

func (w *walker) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if w.pre > 0 {
			return textEscaper.Replace(n.Data)
		}
		return textEscaper.Replace(whitespaceRun.ReplaceAllString(n.Data, " "))
	case html.DocumentNode:
		return w.children(n)
	case html.ElementNode:
	default:
		return ""
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Head, atom.Title:
		return ""
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Figure, atom.Figcaption, atom.Table:
		return block(w.children(n))
	case atom.Br:
		return "\n"
	case atom.Hr:
		return block("---")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(strings.ReplaceAll(w.children(n), "\n", " "))
		if text == "" {
			return ""
		}
		return block(strings.Repeat("#", level) + " " + text)
	case atom.Strong, atom.B:
		return wrapInline(w.children(n), "**")
	case atom.Em, atom.I:
		return wrapInline(w.children(n), "*")
	case atom.A:
		return w.link(n)
	case atom.Img:
		return image(n)
	case atom.Ul, atom.Ol:
		return w.list(n)
	case atom.Li:
		return block(w.children(n))
	case atom.Blockquote:
		body := strings.TrimSpace(w.children(n))
		if body == "" {
			return ""
		}
		return block(quote(body))
	case atom.Pre:
		w.pre++
		body := w.children(n)
		w.pre--
		return block(body)
	case atom.Tr:
		return w.row(n)
	default:
		return w.children(n)
	}
}

func (w *walker) link(n *html.Node) string {
	lead, text, trail := chomp(w.children(n))
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || text == "" {
		return lead + text + trail
	}
	return lead + "[" + text + "](" + href + titleSuffix(attr(n, "title")) + ")" + trail
}

func image(n *html.Node) string {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" {
		return ""
	}
	return "![" + attr(n, "alt") + "](" + src + titleSuffix(attr(n, "title")) + ")"
}

func (w *walker) list(n *html.Node) string {
	ordered := n.DataAtom == atom.Ol
	number := 1
	if start, err := strconv.Atoi(attr(n, "start")); err == nil && ordered {
		number = start
	}

	var b strings.Builder
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode {
			continue
		}
		if li.DataAtom != atom.Li {
			b.WriteString(w.node(li))
			continue
		}
		marker := "* "
		if ordered {
			marker = strconv.Itoa(number) + ". "
			number++
		}
		body := strings.TrimSpace(blankLineRun.ReplaceAllString(w.children(li), "\n\n"))
		b.WriteString(marker + indent(body, len(marker)) + "\n")
	}
	return block(b.String())
}

func (w *walker) row(n *html.Node) string {
	var cells []string
	for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
		if cell.Type != html.ElementNode {
			continue
		}
		text := strings.TrimSpace(strings.ReplaceAll(w.children(cell), "\n", " "))
		cells = append(cells, text)
	}
	if len(cells) == 0 {
		return ""
	}
	return "\n" + strings.Join(cells, " | ") + "\n"
}

func block(s string) string {
	return "\n\n" + s + "\n\n"
}

// wrapInline surrounds the trimmed text with marks, keeping the outer
// whitespace outside the marks.
func wrapInline(s, marks string) string {
	lead, text, trail := chomp(s)
	if text == "" {
		return lead + trail
	}
	return lead + marks + text + marks + trail
}

func chomp(s string) (lead, text, trail string) {
	text = strings.TrimSpace(s)
	if text == "" {
		if s != "" {
			return " ", "", ""
		}
		return "", "", ""
	}
	if strings.TrimLeft(s, " \t\n") != s {
		lead = " "
	}
	if strings.TrimRight(s, " \t\n") != s {
		trail = " "
	}
	return lead, text, trail
}

func titleSuffix(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

func indent(body string, width int) string {
	pad := strings.Repeat(" ", width)
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func quote(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+line, " ")
	}
	return strings.Join(lines, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
