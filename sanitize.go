package relay

import "strings"

var markdownEscapes = map[byte]bool{
	'_': true,
	'*': true,
	'[': true,
	']': true,
	'(': true,
	')': true,
}

// sanitizeMarkdown escapes markup-significant characters outside of code
// spans. Text inside ``` fences stays untouched, and an unclosed fence keeps
// the remainder of the string as code. Within normal text, closed
// single-backtick spans on one line also stay untouched.
func sanitizeMarkdown(text string) string {
	parts := strings.Split(text, "```")
	for i := range parts {
		if i%2 == 0 {
			parts[i] = escapeOutsideInlineCode(parts[i])
		}
	}
	return strings.Join(parts, "```")
}

func escapeOutsideInlineCode(segment string) string {
	lines := strings.Split(segment, "\n")
	for li, line := range lines {
		chunks := strings.Split(line, "`")
		for ci := range chunks {
			// Odd chunks sit between backticks; only a closed span
			// (one more chunk after it) counts as inline code.
			if ci%2 == 0 || ci == len(chunks)-1 {
				chunks[ci] = escapeMarkdown(chunks[ci])
			}
		}
		lines[li] = strings.Join(chunks, "`")
	}
	return strings.Join(lines, "\n")
}

func escapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		if markdownEscapes[text[i]] {
			b.WriteByte('\\')
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
