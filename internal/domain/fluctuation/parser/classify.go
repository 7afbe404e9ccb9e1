package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
)

var (
	subtotalLabel = regexp.MustCompile(`(?i)\b(total|jumlah|sub[\s\-]?total|gesamt)\b`)
	hasDigit      = regexp.MustCompile(`\d`)
)

// ClassifyRow assigns the structural role of a rekap row. Rules are ordered, first match wins:
//
//  1. every cell blank -> empty
//  2. any cell reads total/jumlah/subtotal/gesamt -> subtotal
//  3. account cell has a digit and ends in 0000 -> subtotal
//  4. no account code, some other cell is a nonzero number -> subtotal
//  5. no account code otherwise -> category
//  6. anything else -> detail
func ClassifyRow(cells []model.Cell, accountCol int) model.RowType {
	if model.RowIsBlank(cells) {
		return model.RowEmpty
	}

	for _, c := range cells {
		if c.Kind == model.CellText && subtotalLabel.MatchString(c.Str) {
			return model.RowSubtotal
		}
	}

	account := ""
	if accountCol >= 0 && accountCol < len(cells) {
		account = normalizer.CellText(cells[accountCol])
	}
	hasCode := hasDigit.MatchString(account)

	if hasCode && strings.HasSuffix(account, "0000") {
		return model.RowSubtotal
	}

	if !hasCode {
		for i, c := range cells {
			if i == accountCol {
				continue
			}
			if normalizer.ParseNumber(c) != 0 {
				return model.RowSubtotal
			}
		}
		return model.RowCategory
	}

	return model.RowDetail
}
