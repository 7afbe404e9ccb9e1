package normalizer

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Month names and abbreviations as they appear in rekap header labels, Indonesian and English.
var monthNames = map[string]time.Month{
	"jan": time.January, "januari": time.January, "january": time.January,
	"feb": time.February, "februari": time.February, "february": time.February, "peb": time.February,
	"mar": time.March, "maret": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May, "may": time.May,
	"jun": time.June, "juni": time.June, "june": time.June,
	"jul": time.July, "juli": time.July, "july": time.July,
	"agu": time.August, "agt": time.August, "agus": time.August, "agustus": time.August, "aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October, "oct": time.October, "october": time.October,
	"nov": time.November, "nop": time.November, "november": time.November,
	"des": time.December, "desember": time.December, "dec": time.December, "december": time.December,
}

// ParseMonthLabel reads the month a header label refers to, e.g. "Des 2025", "31 Januari 2026",
// "Jan-26", "2026.01" or "31/12/2025". When the label carries no year, fallbackYear is
// parsed the same way (the column's year-group label). The result is the first day of the month.
func ParseMonthLabel(label, fallbackYear string) (time.Time, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Time{}, false
	}

	if t, ok := ParseDateText(label); ok {
		return firstOfMonth(t.Year(), t.Month()), true
	}
	if IsPeriodKey(label) {
		y, _ := strconv.Atoi(label[:4])
		m, _ := strconv.Atoi(label[5:])
		return firstOfMonth(y, time.Month(m)), true
	}

	tokens := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var month time.Month
	year := 0
	for i, tok := range tokens {
		if m, ok := monthNames[tok]; ok && month == 0 {
			month = m
			// "Jan-26": a two-digit year right after the month
			if i+1 < len(tokens) && len(tokens[i+1]) == 2 {
				if yy, err := strconv.Atoi(tokens[i+1]); err == nil {
					year = 2000 + yy
				}
			}
			continue
		}
		if len(tok) == 4 && (strings.HasPrefix(tok, "19") || strings.HasPrefix(tok, "20")) {
			if y, err := strconv.Atoi(tok); err == nil {
				year = y
			}
		}
	}

	if month == 0 {
		return time.Time{}, false
	}
	if year == 0 {
		year = yearFrom(fallbackYear)
	}
	if year == 0 {
		return time.Time{}, false
	}
	return firstOfMonth(year, month), true
}

func yearFrom(s string) int {
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) {
		if len(tok) == 4 && (strings.HasPrefix(tok, "19") || strings.HasPrefix(tok, "20")) {
			y, _ := strconv.Atoi(tok)
			return y
		}
	}
	return 0
}

func firstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the whole-month distance from a to b (b later is positive).
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
