package translate

import "strings"

// EscapeMarkdown escapes Discord markdown control characters in a text
// body: emphasis/code/spoiler characters anywhere, quote/heading/bullet
// markers at line start, numbered-list prefixes at line start, and the
// bracket/paren pairs used for masked links.
//
// The function is total but NOT idempotent: running it over already-escaped
// input escapes the backslashes again.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	lineStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]

		if c == '\n' {
			b.WriteByte(c)
			lineStart = true
			continue
		}

		escape := false
		switch c {
		case '*', '_', '`', '~', '\\', '|', '[', ']', '(', ')':
			escape = true
		case '#', '>', '-':
			escape = lineStart
		case '.':
			// A run of digits ending in '.' at line start reads as a
			// numbered list item.
			escape = lineStart && i > 0 && isDigitRun(s, i)
		}

		if escape {
			b.WriteByte('\\')
		}
		b.WriteByte(c)

		if c != ' ' && c != '\t' && !(c >= '0' && c <= '9') {
			lineStart = false
		}
	}
	return b.String()
}

// isDigitRun reports whether s[i] is immediately preceded by one or more
// digits.
func isDigitRun(s string, i int) bool {
	j := i - 1
	for j >= 0 && s[j] >= '0' && s[j] <= '9' {
		j--
	}
	return j < i-1
}
