package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emptyCodeBlockPattern = regexp.MustCompile("(?m)^[ \\t]*```[^\\n`]*\\n(?:[ \\t]*\\n)*[ \\t]*```[ \\t]*$")
	bracketHeaderPattern  = regexp.MustCompile(`(?m)^[ \t]*\[([^\]\n]+)\][ \t]*$`)
	ballPattern           = regexp.MustCompile(`(?m)^[ \t]*●[ \t]*(\S.*?)[ \t]*$`)
	referencePattern      = regexp.MustCompile(`(?m)^[ \t]*※[ \t]*(\S.*?)[ \t]*$`)
	escapedStarPattern    = regexp.MustCompile(`(?m)^[ \t]*\\\*[ \t]*(.*)$`)
)

const star = "✦"

// circledNumerals holds ① through ⑩ in ascending order.
var circledNumerals = []string{"①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨", "⑩"}

var numeralPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(circledNumerals))
	for i, glyph := range circledNumerals {
		out[i] = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(glyph) + `[ \t]*(.*?)[ \t]*$`)
	}
	return out
}()

// RemoveEmptyCodeBlocks drops fenced code blocks whose body is blank.
func RemoveEmptyCodeBlocks(s string) string {
	return emptyCodeBlockPattern.ReplaceAllString(s, "")
}

// BracketHeaders turns a line holding only "[Text]" into "# Text".
func BracketHeaders(s string) string {
	return bracketHeaderPattern.ReplaceAllString(s, "# ${1}")
}

// FoldStars promotes star-delimited lines to headers or bullets and puts
// every remaining line in its own block.
//
//	✦ Title ✦     -> # Title
//	**✦ Title ✦** -> # Title
//	✦ Item        -> * Item
func FoldStars(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, star) && strings.HasSuffix(line, star):
			if title := trimStars(line, star, star); title != "" {
				out = append(out, "# "+title)
			}
		case strings.HasPrefix(line, "**"+star) && strings.HasSuffix(line, star+"**"):
			if title := trimStars(line, "**"+star, star+"**"); title != "" {
				out = append(out, "# "+title)
			}
		case strings.HasPrefix(line, star):
			if item := strings.TrimSpace(strings.TrimPrefix(line, star)); item != "" {
				out = append(out, "* "+item)
			}
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}

func trimStars(line, prefix, suffix string) string {
	if len(line) < len(prefix)+len(suffix) {
		return ""
	}
	return strings.TrimSpace(line[len(prefix) : len(line)-len(suffix)])
}

// BallSections turns "● Word" lines into level-2 headers.
func BallSections(s string) string {
	return ballPattern.ReplaceAllString(s, "\n\n## ${1}\n\n")
}

// ReferenceMarks turns "※ text" lines into emphasised paragraphs.
func ReferenceMarks(s string) string {
	return referencePattern.ReplaceAllString(s, "\n\n*${1}*\n\n")
}

// CircledNumerals turns lines led by ① through ⑩ into ordered list items,
// one glyph at a time from ① upwards.
func CircledNumerals(s string) string {
	for i, pattern := range numeralPatterns {
		s = pattern.ReplaceAllString(s, fmt.Sprintf("\n\n%d. ${1}\n\n", i+1))
	}
	return s
}

// EscapedStars turns a line starting with an escaped asterisk into a bullet.
func EscapedStars(s string) string {
	return escapedStarPattern.ReplaceAllString(s, "* ${1}")
}

var (
	linkPattern   = regexp.MustCompile(`(!?)\[([^\[\]\n]*)\]\((?:<([^<>\n]*)>|([^\s()<>]+))(?:[ \t]+"((?:[^"\\\n]|\\.)*)")?\)`)
	bareURLPrefix = regexp.MustCompile(`^https?://(?:www\.)?`)
)

// SimplifyLinks rewrites markdown links for renderers that ignore titles and
// unfurl bare URLs: a title equal to the label (or URL) is dropped, the URL
// is wrapped in angle brackets and a label that is itself a URL loses its
// scheme and "www." prefix. Images are left alone.
func SimplifyLinks(s string) string {
	return linkPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := linkPattern.FindStringSubmatch(match)
		if groups[1] == "!" {
			return match
		}
		label, url, title := groups[2], groups[3], groups[5]
		if url == "" {
			url = groups[4]
		}
		if title == label || title == url {
			title = ""
		}
		if isBareURL(label) {
			label = bareURLPrefix.ReplaceAllString(label, "")
		}

		var b strings.Builder
		b.WriteString("[" + label + "](<" + url + ">")
		if title != "" {
			b.WriteString(` "` + title + `"`)
		}
		b.WriteByte(')')
		return b.String()
	})
}

func isBareURL(label string) bool {
	return bareURLPrefix.MatchString(label) && !strings.ContainsAny(label, " \t")
}

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
)

// CanonicalWhitespace replaces non-breaking spaces with ordinary spaces and
// trims the result.
func CanonicalWhitespace(s string) string {
	return strings.TrimSpace(spaceReplacer.Replace(s))
}
