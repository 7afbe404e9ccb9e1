package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/sniffer"
)

var (
	accountCodePattern = regexp.MustCompile(`^\d{5,}$`)
	yearPattern        = regexp.MustCompile(`20\d{2}`)
	cumulativePattern  = regexp.MustCompile(`(?i)total|up to|s\.d\.|ytd|kumulatif`)
)

// headerBlock is the two physical header rows of the rekap sheet
type headerBlock struct {
	top, bottom int
}

// ParseRekap parses the summary sheet: header block, merged labels, account and amount
// columns, the MoM/YoY column choice, then every data row with its type, deltas and reasons.
func ParseRekap(name string, grid model.Grid, reasons model.AccountReasonMap, opts Options) (*model.RekapTable, []model.Diagnostic) {
	opts = opts.withDefaults()
	var diags []model.Diagnostic
	note := func(d model.Diagnostic) { diags = append(diags, opts.record(d)) }

	block := detectHeaderBlock(grid, opts.HeaderScanRows)
	note(block.Diagnose(name, "rekap_header_block"))

	width := grid.Width()
	topLabels, bottomLabels := mergedLabels(grid, block.Value, width)

	headers := make([]string, width)
	for c := 0; c < width; c++ {
		switch {
		case bottomLabels[c] != "":
			headers[c] = bottomLabels[c]
		case topLabels[c] != "":
			headers[c] = topLabels[c]
		}
	}
	headers = sniffer.DedupeHeaders(headers)

	start := block.Value.bottom + 1
	var body model.Grid
	if start < len(grid) {
		body = grid[start:]
	}

	account := detectAccountColumn(body, width, opts)
	note(account.Diagnose(name, "account_column"))

	table := &model.RekapTable{
		SheetName:     name,
		Headers:       headers,
		AccountColIdx: account.Value,
	}
	table.AmountCols = detectAmountColumns(body, width, account.Value, topLabels, bottomLabels, headers, opts)
	if len(table.AmountCols) == 0 {
		note(model.FellBack(0, "no column reached the numeric density threshold").Diagnose(name, "amount_columns"))
	} else {
		note(model.Detected(len(table.AmountCols), 1).Diagnose(name, "amount_columns"))
	}

	for _, d := range selectComparisonColumns(table, opts.YoYStrategy) {
		d.Sheet = name
		note(d)
	}

	table.Rows = buildRekapRows(body, table, reasons)
	return table, diags
}

// detectHeaderBlock looks for two consecutive rows that each carry at least two labels.
func detectHeaderBlock(grid model.Grid, scan int) model.Detection[headerBlock] {
	for i := 0; i+1 < len(grid) && i < scan; i++ {
		if model.NonBlankCount(grid[i]) >= 2 && model.NonBlankCount(grid[i+1]) >= 2 {
			return model.Detected(headerBlock{top: i, bottom: i + 1}, 1)
		}
	}
	return model.FellBack(headerBlock{top: 0, bottom: 1}, "no two consecutive labelled rows in the leading block")
}

func (b headerBlock) String() string {
	return fmt.Sprintf("rows %d-%d", b.top+1, b.bottom+1)
}

// mergedLabels returns the per-column top and bottom header texts. A top label carries to
// the right until the next non-empty top cell, as merged cells would.
func mergedLabels(grid model.Grid, block headerBlock, width int) (top, bottom []string) {
	top = make([]string, width)
	bottom = make([]string, width)

	carry := ""
	for c := 0; c < width; c++ {
		if t := normalizer.CellText(grid.At(block.top, c)); t != "" {
			carry = t
		}
		top[c] = carry
		bottom[c] = normalizer.CellText(grid.At(block.bottom, c))
	}
	return top, bottom
}

func detectAccountColumn(body model.Grid, width int, opts Options) model.Detection[int] {
	sample := body
	if len(sample) > opts.AccountSampleRows {
		sample = sample[:opts.AccountSampleRows]
	}

	for c := 0; c < width; c++ {
		matches := 0
		for _, row := range sample {
			if c < len(row) && accountCodePattern.MatchString(normalizer.CellText(row[c])) {
				matches++
			}
		}
		if matches >= opts.AccountMinMatches {
			d := model.Detected(c, float64(matches)/float64(len(sample)))
			d.Reason = fmt.Sprintf("%d of %d sampled rows hold a 5+ digit code", matches, len(sample))
			return d
		}
	}
	return model.FellBack(0, "no column holds enough 5+ digit account codes")
}

func detectAmountColumns(body model.Grid, width, accountCol int, top, bottom, headers []string, opts Options) []model.AmountColumn {
	sample := body
	if len(sample) > opts.AmountSampleRows {
		sample = sample[:opts.AmountSampleRows]
	}

	var cols []model.AmountColumn
	for c := 0; c < width; c++ {
		if c == accountCol {
			continue
		}
		nonEmpty, numeric := 0, 0
		for _, row := range sample {
			if c >= len(row) || row[c].IsBlank() {
				continue
			}
			nonEmpty++
			if normalizer.IsNumeric(row[c]) {
				numeric++
			}
		}
		if nonEmpty == 0 || float64(numeric)/float64(nonEmpty) < opts.AmountDensity {
			continue
		}

		raw := strings.TrimSpace(strings.Join(nonEmptyStrings(top[c], bottom[c]), " "))
		if raw == "" {
			raw = headers[c]
		}
		yearLabel := top[c]
		if y := yearPattern.FindString(top[c]); y != "" {
			yearLabel = y
		}
		dateLabel := bottom[c]
		if dateLabel == "" {
			dateLabel = headers[c]
		}
		// A group label carried over several columns says nothing about each one, so the
		// column's own bottom label decides when it has one.
		ownLabel := bottom[c]
		if ownLabel == "" {
			ownLabel = raw
		}

		cols = append(cols, model.AmountColumn{
			ColumnIndex:  c,
			RawLabel:     raw,
			YearLabel:    yearLabel,
			DateLabel:    dateLabel,
			IsCumulative: cumulativePattern.MatchString(ownLabel),
		})
	}
	return cols
}

func nonEmptyStrings(ss ...string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != "" && (len(out) == 0 || out[len(out)-1] != s) {
			out = append(out, s)
		}
	}
	return out
}

func buildRekapRows(body model.Grid, table *model.RekapTable, reasons model.AccountReasonMap) []model.RekapRow {
	width := len(table.Headers)

	// Trailing blank rows carry no information
	last := len(body) - 1
	for last >= 0 && model.RowIsBlank(body[last]) {
		last--
	}

	rows := make([]model.RekapRow, 0, last+1)
	for i := 0; i <= last; i++ {
		cells := make([]model.Cell, width)
		copy(cells, body[i])

		r := model.RekapRow{
			RawValues: cells,
			RowType:   ClassifyRow(cells, table.AccountColIdx),
		}
		r.GapMoM, r.PctMoM = Delta(amountAt(cells, table, table.MomCurrIdx), amountAt(cells, table, table.MomPrevIdx))
		r.GapYoY, r.PctYoY = Delta(amountAt(cells, table, table.YoyCurrIdx), amountAt(cells, table, table.YoyPrevIdx))

		if table.AccountColIdx < len(cells) {
			r.ReasonMoM, r.ReasonYoY = reasons.Reasons(normalizer.CellText(cells[table.AccountColIdx]))
		}
		rows = append(rows, r)
	}
	return rows
}

// amountAt reads the value of the idx-th amount column in a row; 0 when absent
func amountAt(cells []model.Cell, table *model.RekapTable, idx int) float64 {
	ac, ok := table.AmountColumnAt(idx)
	if !ok || ac.ColumnIndex >= len(cells) {
		return 0
	}
	return normalizer.ParseNumber(cells[ac.ColumnIndex])
}
