package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol is appended to every formatted amount.
const CurrencySymbol = "FCFA"

var frenchPrinter = message.NewPrinter(language.French)

// Currency renders an amount of FCFA with French digit grouping, e.g. "59 900 FCFA".
// FCFA has no minor unit so the amount is printed as is.
func Currency(amount int64) string {
	return Number(amount) + " " + CurrencySymbol
}

// Number renders n with French digit grouping using plain spaces.
func Number(n int64) string {
	return normalizeSpaces(frenchPrinter.Sprintf("%d", n))
}

// Percent renders a discount percentage such as "-25 %".
func Percent(p float64) string {
	return normalizeSpaces(frenchPrinter.Sprintf("-%.0f %%", p))
}

// CLDR uses narrow and regular no-break spaces for French grouping.
func normalizeSpaces(s string) string {
	return strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
}
