package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// Analyze runs the whole pass over a read workbook: detail sheets first, then the reason
// index, then the rekap sheet. It never fails; skipped parts are listed in Result.Warnings.
func Analyze(fileName string, wb *Workbook, opts Options) *model.Result {
	opts = opts.withDefaults()
	result := &model.Result{
		FileName:      fileName,
		SheetDataList: []model.SheetTable{},
	}

	for _, se := range wb.Errors {
		result.Warnings = append(result.Warnings, se.Error())
	}

	var candidates []Sheet
	for _, s := range wb.Sheets {
		if !IsAccountSheet(s.Name) {
			candidates = append(candidates, s)
			continue
		}
		table, diags := ExtractDetailSheet(s.Name, s.Grid, opts)
		result.SheetDataList = append(result.SheetDataList, table)
		result.Diagnostics = append(result.Diagnostics, diags...)
	}

	reasons := BuildReasonMap(result.SheetDataList)

	rekap, err := selectRekapSheet(wb, candidates, opts.RekapSheet)
	if err != nil {
		opts.Logger.Warn("rekap section skipped", slog.String("file", fileName), slog.Any("error", err))
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}

	table, diags := ParseRekap(rekap.Name, rekap.Grid, reasons, opts)
	result.RekapSheetData = table
	result.Diagnostics = append(result.Diagnostics, diags...)

	opts.Logger.Info("workbook analysed",
		slog.String("file", fileName),
		slog.Int("detail_sheets", len(result.SheetDataList)),
		slog.String("rekap_sheet", rekap.Name),
		slog.Int("rekap_rows", len(table.Rows)),
		slog.Int("amount_columns", len(table.AmountCols)))
	return result
}

// selectRekapSheet returns the single non-numeric sheet, or the override when one is given.
func selectRekapSheet(wb *Workbook, candidates []Sheet, override string) (Sheet, error) {
	if override = strings.TrimSpace(override); override != "" {
		if s, ok := wb.Sheet(override); ok {
			return s, nil
		}
		for _, s := range wb.Sheets {
			if strings.EqualFold(strings.TrimSpace(s.Name), override) {
				return s, nil
			}
		}
		return Sheet{}, NewSheetError(override, "rekap", errors.New("sheet not found in workbook"))
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return Sheet{}, NewSheetError("", "rekap", errors.New("no non-numeric sheet to use as rekap"))
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return Sheet{}, NewSheetError("", "rekap", fmt.Errorf("%d candidate rekap sheets (%s), choose one explicitly",
			len(candidates), strings.Join(names, ", ")))
	}
}
