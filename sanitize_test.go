package relay

import "testing"

func TestSanitizeMarkdownEscapesPlainText(t *testing.T) {
	cases := map[string]string{
		"a_b*c":           `a\_b\*c`,
		"[link](url)":     `\[link\]\(url\)`,
		"no specials":     "no specials",
		"under_score\n*b": "under\\_score\n\\*b",
	}
	for in, want := range cases {
		if got := sanitizeMarkdown(in); got != want {
			t.Fatalf("sanitizeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeMarkdownLeavesInlineCodeUntouched(t *testing.T) {
	if got := sanitizeMarkdown("`a_b`"); got != "`a_b`" {
		t.Fatalf("inline code was escaped: %q", got)
	}
	if got := sanitizeMarkdown("x_y `a_b` z*w"); got != "x\\_y `a_b` z\\*w" {
		t.Fatalf("mixed inline code escaped wrong: %q", got)
	}
}

func TestSanitizeMarkdownLeavesFencedCodeUntouched(t *testing.T) {
	in := "```\n_x_\n```"
	if got := sanitizeMarkdown(in); got != in {
		t.Fatalf("fenced code was escaped: %q", got)
	}

	in = "before_text\n```\na_b (c)\n```\nafter*text"
	want := "before\\_text\n```\na_b (c)\n```\nafter\\*text"
	if got := sanitizeMarkdown(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSanitizeMarkdownUnclosedFenceStaysCode(t *testing.T) {
	in := "plain_one\n```\na_b"
	want := "plain\\_one\n```\na_b"
	if got := sanitizeMarkdown(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSanitizeMarkdownUnclosedInlineBacktickIsEscaped(t *testing.T) {
	// a dangling backtick opens no span, the remainder is normal text
	if got := sanitizeMarkdown("x `a_b"); got != "x `a\\_b" {
		t.Fatalf("got %q", got)
	}
}
