package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// Excel serial day 0. Serial values carry the 1900 leap-year bug, which the 12-30 epoch absorbs.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial numbers in this range are treated as plausible dates (2009-07 .. 2064-04).
const (
	minSerialDate = 40000
	maxSerialDate = 60000
)

var (
	dmySlashPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dmyDotPattern   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	isoPattern      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
	compactPattern  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// ParseDateToPeriod converts a date cell into a "YYYY.MM" period key. It accepts Excel serial
// numbers, dd/mm/yyyy, dd.mm.yyyy, yyyy-mm-dd and yyyymmdd. Anything else is returned as its
// original text, and an empty cell yields "".
func ParseDateToPeriod(c model.Cell) string {
	switch c.Kind {
	case model.CellEmpty:
		return ""
	case model.CellNumber:
		if y, m, ok := compactNumber(c.Number); ok {
			return FormatPeriod(y, m)
		}
		t := SerialToTime(c.Number)
		return FormatPeriod(t.Year(), t.Month())
	}

	if y, m, ok := parseDateText(c.Str); ok {
		return FormatPeriod(y, m)
	}
	return c.Str
}

// ParseDateText parses a date string in one of the accepted text layouts.
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	var year, month, day string

	if m := dmySlashPattern.FindStringSubmatch(s); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else if m := dmyDotPattern.FindStringSubmatch(s); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else if m := isoPattern.FindStringSubmatch(s); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else if m := compactPattern.FindStringSubmatch(s); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else {
		return time.Time{}, false
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
}

func parseDateText(s string) (int, time.Month, bool) {
	t, ok := ParseDateText(s)
	if !ok {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// SerialToTime converts an Excel serial day number to a UTC time.
func SerialToTime(serial float64) time.Time {
	ms := int64(math.Round(serial * 86400000))
	return excelEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// LooksLikeDate reports whether a cell plausibly holds a date: a serial number in the
// 40000-60000 range, or text in one of the accepted layouts.
func LooksLikeDate(c model.Cell) bool {
	switch c.Kind {
	case model.CellNumber:
		return c.Number >= minSerialDate && c.Number <= maxSerialDate
	case model.CellText:
		_, ok := ParseDateText(c.Str)
		return ok
	}
	return false
}

// FormatPeriod renders a canonical period key
func FormatPeriod(year int, month time.Month) string {
	return fmt.Sprintf("%04d.%02d", year, int(month))
}

// IsPeriodKey reports whether s is a canonical "YYYY.MM" key. Callers treat anything else
// as an unknown period.
func IsPeriodKey(s string) bool {
	if len(s) != 7 || s[4] != '.' {
		return false
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return false
	}
	_, err = strconv.Atoi(s[:4])
	return err == nil
}

// compactNumber reads a whole number written as yyyymmdd (20260119), which SAP exports
// store as numeric cells.
func compactNumber(v float64) (int, time.Month, bool) {
	if v != math.Trunc(v) || v < 19000101 || v > 29991231 {
		return 0, 0, false
	}
	n := int(v)
	y, m, d := n/10000, (n/100)%100, n%100
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, false
	}
	return y, time.Month(m), true
}
