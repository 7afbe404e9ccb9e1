package normalizer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// Leading accrual markers on SAP item texts ("Accrued - Sewa gedung", "YMHD: listrik").
var accrualPrefix = regexp.MustCompile(`(?i)^(?:(?:accrued?|accrual|akrual|ymhd?)\b|accr\.)\s*[-:]?\s*`)

// CleanClassification trims the text, drops a leading accrual marker and collapses
// internal whitespace. A text that is only the marker is kept as is.
func CleanClassification(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	stripped := strings.TrimSpace(accrualPrefix.ReplaceAllString(s, ""))
	if stripped == "" {
		return s
	}
	return stripped
}

// CollapseSpaces trims s and replaces every run of whitespace with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CellText returns the trimmed display text of a cell
func CellText(c model.Cell) string {
	return strings.TrimSpace(c.Text())
}
