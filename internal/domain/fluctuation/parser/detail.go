package parser

import (
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/sniffer"
)

// ExtractDetailSheet reads one account-code sheet. Every non-blank row below the header is
// kept with all of its original columns, plus the period, classification and remark fields.
func ExtractDetailSheet(name string, grid model.Grid, opts Options) (model.SheetTable, []model.Diagnostic) {
	opts = opts.withDefaults()
	table := model.SheetTable{SheetName: strings.TrimSpace(name)}
	var diags []model.Diagnostic

	header := sniffer.FindHeaderRow(grid)
	diags = append(diags, opts.record(header.Diagnose(table.SheetName, "header_row")))

	width := grid.Width()
	hdr := header.Value
	if width == 0 || hdr >= len(grid) {
		table.Headers = []string{}
		table.Rows = []model.DetailRow{}
		return table, diags
	}

	table.Headers = sniffer.DedupeHeaders(sniffer.RowLabels(grid[hdr], width), model.ReservedRowKeys...)

	body := grid[hdr+1:]
	sample := make([][]model.Cell, 0, opts.DetailSampleRows)
	for _, row := range body {
		if len(sample) == opts.DetailSampleRows {
			break
		}
		if !model.RowIsBlank(row) {
			sample = append(sample, row)
		}
	}

	roles := sniffer.ClassifyColumns(table.Headers, sample)
	for _, d := range roles.Diagnostics(table.SheetName) {
		diags = append(diags, opts.record(d))
	}

	table.Rows = make([]model.DetailRow, 0, len(body))
	for _, row := range body {
		if model.RowIsBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, detailRow(table.Headers, row, roles))
	}
	return table, diags
}

func detailRow(headers []string, row []model.Cell, roles sniffer.ColumnRoles) model.DetailRow {
	values := make(map[string]model.Cell, len(headers))
	for i, h := range headers {
		if i < len(row) {
			values[h] = row[i]
		} else {
			values[h] = model.Cell{}
		}
	}

	out := model.DetailRow{Values: values}
	if col := roles.Date.Value; col >= 0 && col < len(row) {
		out.Period = normalizer.ParseDateToPeriod(row[col])
	}
	if col := roles.Classification.Value; col >= 0 && col < len(row) {
		out.Classification = normalizer.CleanClassification(row[col].Text())
	}
	if col := roles.Remark.Value; col >= 0 && col < len(row) {
		out.Remark = normalizer.CollapseSpaces(row[col].Text())
	}
	return out
}

// BuildReasonMap indexes the classification and remark texts of every detail row under the
// sheet's account code. It is built once per workbook, before any rekap row is classified.
func BuildReasonMap(tables []model.SheetTable) model.AccountReasonMap {
	reasons := make(model.AccountReasonMap, len(tables))
	for _, t := range tables {
		for _, r := range t.Rows {
			reasons.Add(t.SheetName, r.Classification, r.Remark)
		}
	}
	return reasons
}
