// Package normalizer converts raw worksheet cells into canonical numbers, period keys and
// cleaned free text. Every function here is total: bad input degrades to a default value.
package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// ParseNumber reads an amount cell. Numeric cells are returned unchanged, empty cells are 0,
// and text is read with Indonesian separators ("." thousands, "," decimal). A leading "Rp" or
// "IDR", a trailing "%" and accounting parentheses "(1.000)" are accepted. Unparseable text is 0.
func ParseNumber(c model.Cell) float64 {
	if c.IsNumber() {
		return c.Number
	}
	d, _ := ParseDecimal(c)
	f, _ := d.Float64()
	return f
}

// ParseDecimal is ParseNumber with exact arithmetic. ok is false for empty cells and for
// text that is not a number.
func ParseDecimal(c model.Cell) (d decimal.Decimal, ok bool) {
	switch c.Kind {
	case model.CellNumber:
		return decimal.NewFromFloat(c.Number), true
	case model.CellText:
		return parseLocaleText(c.Str)
	}
	return decimal.Zero, false
}

// IsNumeric reports whether the cell holds a number, either stored as one or as locale text.
func IsNumeric(c model.Cell) bool {
	_, ok := ParseDecimal(c)
	return ok
}

// ParseNumberString applies the text rules of ParseNumber to a plain string
func ParseNumberString(s string) float64 {
	d, _ := parseLocaleText(s)
	f, _ := d.Float64()
	return f
}

func parseLocaleText(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimSpace(trimCurrency(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, false
	}

	// "1.234.567,89" -> "1234567.89"
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

func trimCurrency(s string) string {
	for _, prefix := range []string{"rp.", "rp", "idr"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return s[len(prefix):]
		}
	}
	return s
}
