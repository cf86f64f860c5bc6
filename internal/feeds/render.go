package feeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-feedmirror/internal/normalize"
)

// XML renders the document as an Atom feed.
func (d Document) XML() []byte {
	meta := d.Meta
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(meta.Title)))
	if meta.AlternateLink != "" {
		builder.WriteString(fmt.Sprintf(`  <link href="%s" rel="alternate" type="text/html"/>`+"\n", escapeXMLAttr(meta.AlternateLink)))
	}
	if self := meta.SelfLink(d.File); self != "" {
		builder.WriteString(fmt.Sprintf(`  <link href="%s" rel="self" type="application/atom+xml"/>`+"\n", escapeXMLAttr(self)))
	}
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(meta.ID)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", formatTime(d.Updated)))
	writeOptional(&builder, "  ", "subtitle", meta.Subtitle)
	writeOptional(&builder, "  ", "icon", meta.Icon)
	writeOptional(&builder, "  ", "logo", meta.Logo)
	if meta.RightsHolder != "" {
		builder.WriteString(fmt.Sprintf("  <rights>Copyright © %d %s</rights>\n", d.Year, escapeXML(meta.RightsHolder)))
	}
	if meta.Generator != "" {
		builder.WriteString("  <generator")
		if meta.GeneratorURI != "" {
			builder.WriteString(fmt.Sprintf(` uri="%s"`, escapeXMLAttr(meta.GeneratorURI)))
		}
		if meta.GeneratorVersion != "" {
			builder.WriteString(fmt.Sprintf(` version="%s"`, escapeXMLAttr(meta.GeneratorVersion)))
		}
		builder.WriteString(fmt.Sprintf(">%s</generator>\n", escapeXML(meta.Generator)))
	}
	writeAuthor(&builder, "  ", meta.Author)

	for _, entry := range d.Entries {
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(entry.ID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(entry.Title)))
		if entry.Link != "" {
			builder.WriteString(fmt.Sprintf(`    <link href="%s" rel="alternate" type="text/html"/>`+"\n", escapeXMLAttr(entry.Link)))
		}
		builder.WriteString(fmt.Sprintf("    <content type=\"text\">%s</content>\n", normalize.Escape(entry.Content)))
		if entry.Published != nil {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", formatTime(*entry.Published)))
		}
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", formatTime(entry.Updated)))
		if entry.Category.Term != "" {
			builder.WriteString(fmt.Sprintf(`    <category term="%s" label="%s"/>`+"\n", escapeXMLAttr(entry.Category.Term), escapeXMLAttr(entry.Category.Label)))
		}
		writeAuthor(&builder, "    ", meta.Author)
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString("</feed>\n")
	return []byte(builder.String())
}

func writeOptional(b *strings.Builder, indent, tag, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf("%s<%s>%s</%s>\n", indent, tag, escapeXML(value), tag))
}

func writeAuthor(b *strings.Builder, indent string, author Author) {
	if author.Name == "" {
		return
	}
	b.WriteString(indent + "<author>\n")
	writeOptional(b, indent+"  ", "name", author.Name)
	writeOptional(b, indent+"  ", "email", author.Email)
	writeOptional(b, indent+"  ", "uri", author.URI)
	b.WriteString(indent + "</author>\n")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func escapeXML(value string) string {
	return normalize.Escape(value)
}

func escapeXMLAttr(value string) string {
	return normalize.Escape(value)
}
