package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases and strips diacritics so "Açúcar" matches "acucar".
// Legacy master data mixes accented and plain spellings freely.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// RankMatch orders search hits the way the entry form expects: exact code
// first, then code prefix, exact name, name prefix and finally plain
// containment. Lower is better; 7 means no direct match.
func RankMatch(code, name, term string) int {
	code, name, term = Fold(code), Fold(name), Fold(term)
	switch {
	case code == term:
		return 1
	case strings.HasPrefix(code, term):
		return 2
	case name == term:
		return 3
	case strings.HasPrefix(name, term):
		return 4
	case strings.Contains(code, term):
		return 5
	case strings.Contains(name, term):
		return 6
	default:
		return 7
	}
}
