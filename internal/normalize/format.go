package normalize

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var markdownParser parser.Parser = goldmark.New().Parser()

// Format re-emits markdown in canonical form: ATX headings, "-" bullets,
// consecutive ordered numbering from the list start, fenced code, "---"
// breaks and one blank line between blocks. Inline text is copied from the
// source so escapes and entities survive untouched. Non-breaking spaces are
// read as spaces so a marker followed by U+00A0 still opens a list item.
func Format(markdown string) string {
	source := []byte(spaceReplacer.Replace(markdown))
	doc := markdownParser.Parse(text.NewReader(source))
	f := formatter{source: source}
	return strings.TrimSpace(f.container(doc, "\n\n"))
}

type formatter struct {
	source []byte
}

// container renders the block children of n joined by sep. Adjacent lists of
// the same kind alternate their marker so they do not merge on re-parse.
func (f formatter) container(n ast.Node, sep string) string {
	var parts []string
	var prevMarker byte
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var out string
		if list, ok := child.(*ast.List); ok {
			marker := listMarker(list, prevMarker)
			out = f.list(list, marker)
			prevMarker = marker
		} else {
			out = f.block(child)
			prevMarker = 0
		}
		if out == "" {
			continue
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, sep)
}

func listMarker(list *ast.List, prev byte) byte {
	if list.IsOrdered() {
		if prev == '.' {
			return ')'
		}
		return '.'
	}
	if prev == '-' {
		return '*'
	}
	return '-'
}

func (f formatter) block(n ast.Node) string {
	switch node := n.(type) {
	case *ast.Heading:
		marks := strings.Repeat("#", node.Level)
		if content := f.inline(node); content != "" {
			return marks + " " + content
		}
		return marks
	case *ast.Paragraph, *ast.TextBlock:
		return f.inline(node)
	case *ast.ThematicBreak:
		return "---"
	case *ast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = strings.TrimSpace(string(node.Info.Segment.Value(f.source)))
		}
		return f.codeBlock(node, info)
	case *ast.CodeBlock:
		return f.codeBlock(node, "")
	case *ast.Blockquote:
		return prefixLines(f.container(node, "\n\n"), "> ", ">")
	case *ast.HTMLBlock:
		var b bytes.Buffer
		f.writeLines(&b, node)
		if node.HasClosure() {
			b.Write(node.ClosureLine.Value(f.source))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		if n.HasChildren() {
			return f.container(n, "\n\n")
		}
		return ""
	}
}

func (f formatter) list(list *ast.List, marker byte) string {
	sep := "\n\n"
	if list.IsTight {
		sep = "\n"
	}
	number := list.Start
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		prefix := string(marker) + " "
		if list.IsOrdered() {
			prefix = strconv.Itoa(number) + string(marker) + " "
			number++
		}
		body := f.container(item, sep)
		if body == "" {
			items = append(items, strings.TrimRight(prefix, " "))
			continue
		}
		items = append(items, prefix+indentContinuation(body, len(prefix)))
	}
	return strings.Join(items, sep)
}

func (f formatter) codeBlock(n ast.Node, info string) string {
	var b bytes.Buffer
	f.writeLines(&b, n)
	content := b.String()
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	fence := strings.Repeat("`", max(3, longestRun(content, '`')+1))
	return fence + info + "\n" + content + fence
}

func (f formatter) writeLines(b *bytes.Buffer, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(f.source))
	}
}

func (f formatter) inline(n ast.Node) string {
	var b strings.Builder
	f.writeInline(&b, n)
	return strings.TrimSpace(b.String())
}

func (f formatter) writeInline(b *strings.Builder, n ast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(f.source))
			switch {
			case node.HardLineBreak():
				b.WriteString("\\\n")
			case node.SoftLineBreak():
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeSpan:
			b.WriteString(f.codeSpan(node))
		case *ast.Emphasis:
			marks := strings.Repeat("*", node.Level)
			b.WriteString(marks)
			f.writeInline(b, node)
			b.WriteString(marks)
		case *ast.Link:
			b.WriteByte('[')
			f.writeInline(b, node)
			b.WriteString("](")
			b.WriteString(destination(node.Destination))
			b.WriteString(title(node.Title))
			b.WriteByte(')')
		case *ast.Image:
			b.WriteString("![")
			f.writeInline(b, node)
			b.WriteString("](")
			b.WriteString(destination(node.Destination))
			b.WriteString(title(node.Title))
			b.WriteByte(')')
		case *ast.AutoLink:
			b.WriteByte('<')
			b.Write(node.Label(f.source))
			b.WriteByte('>')
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				b.Write(segment.Value(f.source))
			}
		default:
			f.writeInline(b, child)
		}
	}
}

// codeSpan picks a backtick fence longer than any run inside the content and
// pads the content when the parser would otherwise strip or merge it.
func (f formatter) codeSpan(n *ast.CodeSpan) string {
	var b bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(f.source))
		}
	}
	content := strings.ReplaceAll(b.String(), "\n", " ")
	fence := strings.Repeat("`", longestRun(content, '`')+1)

	pad := strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`")
	if strings.TrimSpace(content) != "" && strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") {
		pad = true
	}
	if pad {
		return fence + " " + content + " " + fence
	}
	return fence + content + fence
}

func destination(dest []byte) string {
	s := string(dest)
	if s == "" || !strings.ContainsAny(s, " \t()<>") {
		return s
	}
	s = strings.ReplaceAll(s, "<", `\<`)
	s = strings.ReplaceAll(s, ">", `\>`)
	return "<" + s + ">"
}

func title(t []byte) string {
	if len(t) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(` "`)
	escaped := false
	for _, r := range string(t) {
		if r == '"' && !escaped {
			b.WriteByte('\\')
		}
		escaped = r == '\\' && !escaped
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func longestRun(s string, c byte) int {
	longest, current := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			current = 0
			continue
		}
		current++
		longest = max(longest, current)
	}
	return longest
}

func indentContinuation(body string, width int) string {
	lines := strings.Split(body, "\n")
	pad := strings.Repeat(" ", width)
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func prefixLines(body, prefix, blank string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = blank
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
