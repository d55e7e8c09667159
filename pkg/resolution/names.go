package resolution

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds accents, drops punctuation, collapses whitespace and upper-cases,
// so "  Niccolò D'Amico" and "NICCOLO D AMICO" compare equal.
func NormalizeName(name string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// nameKeys returns the lookup keys of a person in both "First Last" and "Last First" order.
func nameKeys(first, last string) []string {
	forward := NormalizeName(first + " " + last)
	if forward == "" {
		return nil
	}
	backward := NormalizeName(last + " " + first)
	if backward == forward {
		return []string{forward}
	}
	return []string{forward, backward}
}
