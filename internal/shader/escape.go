package shader

import "strings"

// EscapeOptions controls how a source line becomes literal text.
type EscapeOptions struct {
	// TabWidth expands each tab to this many spaces. Zero keeps tabs.
	TabWidth int
	// CompactIndent halves leading 4-space runs until the line no longer
	// starts with four spaces.
	CompactIndent bool
}

// EscapeLine prepares one source line for a C++ string literal.
func EscapeLine(line string, opts EscapeOptions) string {
	if opts.TabWidth > 0 {
		line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", opts.TabWidth))
	}
	if opts.CompactIndent {
		line = compactIndent(line)
	}
	line = strings.ReplaceAll(line, `\`, `\\`)
	line = strings.ReplaceAll(line, `"`, `\"`)
	return line
}

// compactIndent rewrites the leading run of n spaces: every group of four
// becomes two, repeated while at least four remain.
//
// Only the leading run is touched: "    a =    b" keeps its inner spacing.
// Generators that rewrite every 4-space run of an indented line emit
// different bytes for such lines, so output is not byte-compatible with
// theirs.
func compactIndent(line string) string {
	n := len(line) - len(strings.TrimLeft(line, " "))
	if n < 4 {
		return line
	}
	m := n
	for m >= 4 {
		m = 2*(m/4) + m%4
	}
	return strings.Repeat(" ", m) + line[n:]
}

// UnescapeLine reverses the quoting done by EscapeLine. Whitespace rewrites
// are not reversible.
func UnescapeLine(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
