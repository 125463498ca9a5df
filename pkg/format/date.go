package format

import (
	"fmt"
	"strings"
	"time"
)

const (
	// InvalidDate is shown when a date string cannot be parsed.
	InvalidDate = "Date invalide"
	// NotAvailable is shown when no date is provided.
	NotAvailable = "N/A"
)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date renders t as "15 janvier 2024".
func Date(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// DateTime renders t as "15 janvier 2024 à 14:30".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return fmt.Sprintf("%s à %02d:%02d", Date(t), t.Hour(), t.Minute())
}

// DateString parses raw and renders it like Date. Empty input yields "N/A" and
// unparsable input yields "Date invalide".
func DateString(raw string) string {
	t, ok, err := parseDate(raw)
	if !ok {
		return NotAvailable
	}
	if err != nil {
		return InvalidDate
	}
	return Date(t)
}

// DateTimeString is the DateTime counterpart of DateString.
func DateTimeString(raw string) string {
	t, ok, err := parseDate(raw)
	if !ok {
		return NotAvailable
	}
	if err != nil {
		return InvalidDate
	}
	return DateTime(t)
}

// RelativeTime renders how long ago t happened relative to now, in French.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "à l'instant"
	case elapsed < time.Hour:
		return fmt.Sprintf("il y a %d min", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("il y a %d h", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		days := int(elapsed.Hours() / 24)
		if days == 1 {
			return "hier"
		}
		return fmt.Sprintf("il y a %d jours", days)
	}
	return Date(t)
}

func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, true, fmt.Errorf("unrecognized date %q", raw)
}
