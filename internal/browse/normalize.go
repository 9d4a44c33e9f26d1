package browse

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSearch trims s, collapses inner whitespace and composes Unicode
// so visually identical input produces the same backend query.
func NormalizeSearch(s string) string {
	s, _, _ = transform.String(norm.NFC, s)
	return strings.Join(strings.Fields(s), " ")
}

// FoldKey lowercases s and strips diacritics. Used to match suggestions
// against typed text ("uber" matches "Über").
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return strings.ToLower(NormalizeSearch(out))
}

// MatchIndex returns the byte range in text of the first case- and
// accent-insensitive match of query, or (-1, -1). Used for highlighting.
func MatchIndex(text, query string) (start, end int) {
	q := FoldKey(query)
	if q == "" {
		return -1, -1
	}
	// Walk rune boundaries so the returned range never splits a character.
	for i, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		for j := i + 1; j <= len(text); j++ {
			if j < len(text) && !isRuneStart(text[j]) {
				continue
			}
			f := FoldKey(text[i:j])
			if f == q {
				return i, j
			}
			if len(f) > len(q) {
				break
			}
		}
	}
	return -1, -1
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
