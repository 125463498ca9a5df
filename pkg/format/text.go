package format

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so "Pharmacie Évêché" matches "eveche".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Phone groups a Senegalese number as "+221 77 123 45 67". Numbers it does not
// recognize are returned unchanged.
func Phone(raw string) string {
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	local := string(digits)
	prefix := ""
	switch {
	case len(local) == 12 && strings.HasPrefix(local, "221"):
		prefix = "+221 "
		local = local[3:]
	case len(local) == 9:
	default:
		return raw
	}
	return prefix + local[0:2] + " " + local[2:5] + " " + local[5:7] + " " + local[7:9]
}
