package normalize

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeFixtures(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"star header", "✦ Hello ✦", "# Hello"},
		{"bold star header", "**✦ Events ✦**", "# Events"},
		{"circled numeral", "① First step", "1. First step"},
		{"titled link", `[Link](https://x.com "Link")`, "[Link](<https://x.com>)"},
		{"bracket header", "[How to Update]", "# How to Update"},
		{"ball section", "Intro\n● Rewards\nText", "Intro\n\n## Rewards\n\nText"},
		{"reference mark", "※ Rewards are sent by mail", "*Rewards are sent by mail*"},
		{"numeral sequence", "① a\n② b\n③ c", "1. a\n\n2. b\n\n3. c"},
		{"star bullets", "✦ One\n✦ Two", "- One\n\n- Two"},
		{"escaped star", `\* Bonus reward`, "- Bonus reward"},
		{"empty code block", "Before\n```\n\n```\nAfter", "Before\n\nAfter"},
		{"crlf", "Line one\r\nLine two", "Line one\n\nLine two"},
		{"non-breaking space", "Server\u00a0time\u202fUTC", "Server time UTC"},
		{"underscore emphasis", "_note_ this", "*note* this"},
		{"url label", "[https://www.example.com/page](https://www.example.com/page)", "[example.com/page](<https://www.example.com/page>)"},
		{"kept title", `[Docs](https://x.com "Read more")`, `[Docs](<https://x.com> "Read more")`},
		{"image untouched", `![cover](https://x.com/a.png "cover")`, `![cover](https://x.com/a.png "cover")`},
		{"thematic break", "Top\n***\nBottom", "Top\n\n---\n\nBottom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Normalize(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestNormalizeEmptyContentUsesPlaceholder(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "```\n\n```", "✦✦", "\u00a0"} {
		if got := Normalize(in); got != Placeholder {
			t.Fatalf("Normalize(%q) = %q, want placeholder", in, got)
		}
	}
	if Escape(Normalize("")) == "" {
		t.Fatal("expected escaped placeholder to be non-empty")
	}
}

var idempotenceCorpus = []string{
	"✦ Hello ✦",
	"① First step\n② Second step\n⑩ Tenth",
	"[Notice]\nDear Rovers,\n● Event Period\nAfter the update\n※ Subject to change\n\\* Bonus",
	"- a\n\n* b\n\n- c",
	"1. one\n\n1) two",
	"> quoted ✦ text\n> > nested",
	"```go\nfmt.Println(\"hi\")\n```",
	"Use `` ` `` for code and `  padded  ` spans",
	"**bold** and _em_ and ***both***",
	"[https://example.com](https://example.com \"https://example.com\")",
	"<div>\nraw html\n</div>",
	"Title\n===\nBody",
	"3. starts at three\n4. next",
	"-\u00a0item with nbsp marker",
	"Link <https://autolink.example> and [ref][r]\n\n[r]: https://ref.example \"Ref\"",
	"",
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, in := range idempotenceCorpus {
		once := Normalize(in)
		twice := Normalize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Normalize not idempotent for %q (-once +twice):\n%s", in, diff)
		}
	}
}

func TestStagesRunInDeclaredOrder(t *testing.T) {
	want := []string{
		"empty_code_blocks",
		"bracket_headers",
		"star_folding",
		"ball_sections",
		"reference_marks",
		"circled_numerals",
		"escaped_stars",
		"format",
		"simplify_links",
		"whitespace",
	}
	var got []string
	for _, stage := range Stages() {
		got = append(got, stage.Name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldStars(t *testing.T) {
	in := "  ✦ Title ✦  \n\n✦ Item\nplain line\n✦\n"
	want := "# Title\n\n* Item\n\nplain line"
	if got := FoldStars(in); got != want {
		t.Fatalf("FoldStars mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestCircledNumeralsOnlyMatchWholeLines(t *testing.T) {
	in := "Step ① stays inline\n  ⑤ Fifth  "
	got := CircledNumerals(in)
	if !strings.Contains(got, "Step ① stays inline") {
		t.Fatalf("expected inline numeral untouched, got %q", got)
	}
	if !strings.Contains(got, "\n\n5. Fifth\n\n") {
		t.Fatalf("expected fifth item, got %q", got)
	}
}

func TestEscapedStarsOnlyAtLineStart(t *testing.T) {
	got := EscapedStars("5 \\* 3\n\\*Bonus")
	if got != "5 \\* 3\n* Bonus" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestSimplifyLinksDropsTitleMatchingURL(t *testing.T) {
	got := SimplifyLinks(`[Guide](https://x.com/g "https://x.com/g")`)
	if got != "[Guide](<https://x.com/g>)" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestFormatAlternatesAdjacentListMarkers(t *testing.T) {
	got := Format("- a\n\n* b")
	if got != "- a\n\n* b" {
		t.Fatalf("expected adjacent lists to keep distinct markers, got %q", got)
	}
	got = Format("* a\n* b")
	if got != "- a\n- b" {
		t.Fatalf("expected tight list with dash marker, got %q", got)
	}
}

func TestFormatRenumbersOrderedLists(t *testing.T) {
	got := Format("1. a\n1. b\n1. c")
	if got != "1. a\n2. b\n3. c" {
		t.Fatalf("unexpected numbering %q", got)
	}
}

func TestFormatCodeSpanFence(t *testing.T) {
	got := Format("Use ``a ` b`` here")
	if got != "Use ``a ` b`` here" {
		t.Fatalf("unexpected code span %q", got)
	}
}

func TestEscape(t *testing.T) {
	got := Escape(`a < b & "c"`)
	if got != "a &lt; b &amp; &#34;c&#34;" {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestEscapeDropsInvalidXMLCharacters(t *testing.T) {
	got := Escape("a\u0000b\u000bc\u001f\ufffe\uffff\td\ne\u00e9")
	if got != "abc\td\ne\u00e9" {
		t.Fatalf("unexpected escape %q", got)
	}
	if StripInvalidXML("plain ✦ text") != "plain ✦ text" {
		t.Fatal("valid text must pass through unchanged")
	}
}

func TestPipelineOptions(t *testing.T) {
	p := New(WithPlaceholder("Nothing here"), WithStages(Stage{Name: "upper", Apply: strings.ToUpper}))
	if got := p.Run("abc"); got != "ABC" {
		t.Fatalf("expected custom stage, got %q", got)
	}
	if got := p.Run(""); got != "Nothing here" {
		t.Fatalf("expected custom placeholder, got %q", got)
	}
}
