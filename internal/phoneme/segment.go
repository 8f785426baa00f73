package phoneme

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Segment splits IPA text into symbols. The text is NFC normalized and
// matched greedily against the longest table symbols so that symbols made
// of several code points (nasal vowels) stay whole. Runes outside the table
// become single symbols and any run of white space collapses into one
// space.
func (t *Table) Segment(text string) []string {
	runes := []rune(norm.NFC.String(text))
	out := make([]string, 0, len(runes))

	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			out = append(out, " ")
			continue
		}

		n := t.match(runes[i:])
		out = append(out, string(runes[i:i+n]))
		i += n
	}
	return out
}

// match returns the rune length of the longest symbol that prefixes rs, or
// 1 when none does.
func (t *Table) match(rs []rune) int {
	for n := min(t.maxLen, len(rs)); n > 1; n-- {
		if _, ok := t.frames[string(rs[:n])]; ok {
			return n
		}
	}
	return 1
}

// Join is the inverse of Segment for display.
func Join(symbols []string) string {
	return strings.Join(symbols, "")
}
