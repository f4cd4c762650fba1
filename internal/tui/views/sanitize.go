package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal strips codepoints that break cell-width accounting in
// tcell/tview. Pasted clipboard text is full of them: skin tone modifiers
// (U+1F3FB..U+1F3FF), the Zero Width Joiner (U+200D) gluing emoji sequences
// together, and variation selectors (U+FE00..U+FE0F, U+E0100..U+E01EF). The
// survivors render at a predictable width; a 👍🏻 becomes a plain 👍.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !breaksCellWidth(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func breaksCellWidth(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0xE0100 && r <= 0xE01EF: // variation selectors supplement
		return true
	default:
		return false
	}
}
