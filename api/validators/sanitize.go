package validators

import "strings"

// SanitizeText collapses runs of whitespace to single spaces, trims the ends
// and keeps at most maxRunes runes so accented text is never cut mid-character.
// A non-positive maxRunes disables the cap.
func SanitizeText(input string, maxRunes int) string {
	clean := strings.Join(strings.Fields(input), " ")
	if maxRunes <= 0 {
		return clean
	}
	runes := []rune(clean)
	if len(runes) <= maxRunes {
		return clean
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}
