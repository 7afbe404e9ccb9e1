// Package exporter renders the analysed workbook back to a styled xlsx, and the rekap table
// to CSV. It restates upstream results as formatting only and never recomputes them.
package exporter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// ContentType of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Titles of the columns appended to each sheet
var (
	DetailSystemHeaders = []string{"Period", "Classification", "Remark"}
	RekapSystemHeaders  = []string{"GAP MoM", "MoM%", "Reason MoM", "GAP YoY", "YoY%", "Reason YoY"}
)

var yearToken = regexp.MustCompile(`(19|20)\d{2}`)

// Options controls presentation only.
type Options struct {
	// YearThreshold splits amount columns into "previous" (year below it) and "current" colours.
	YearThreshold int
	Logger        *slog.Logger
}

// DefaultOptions returns the standard presentation settings
func DefaultOptions() Options {
	return Options{YearThreshold: 2025, Logger: slog.Default()}
}

// Emitter writes Result values to xlsx.
type Emitter struct {
	opts Options
}

// New creates an Emitter. Zero option fields take their defaults.
func New(opts Options) *Emitter {
	d := DefaultOptions()
	if opts.YearThreshold == 0 {
		opts.YearThreshold = d.YearThreshold
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	return &Emitter{opts: opts}
}

// Write renders the rekap sheet first (and makes it active), then one sheet per detail table.
func (e *Emitter) Write(res *model.Result) ([]byte, error) {
	if res == nil {
		res = &model.Result{}
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{
		f:      f,
		styles: newStyleCache(f),
		opts:   e.opts,
	}
	names := newSheetNamer()
	first := true
	addSheet := func(want string) (string, error) {
		name := names.unique(want)
		if first {
			first = false
			return name, f.SetSheetName(f.GetSheetName(0), name)
		}
		_, err := f.NewSheet(name)
		return name, err
	}

	if res.RekapSheetData != nil {
		name, err := addSheet(res.RekapSheetData.SheetName)
		if err != nil {
			return nil, fmt.Errorf("add rekap sheet: %w", err)
		}
		if err := w.writeRekap(name, res.RekapSheetData); err != nil {
			return nil, fmt.Errorf("write rekap sheet %q: %w", name, err)
		}
	}

	for _, t := range res.SheetDataList {
		name, err := addSheet(t.SheetName)
		if err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", t.SheetName, err)
		}
		if err := w.writeDetail(name, t); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", name, err)
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	e.opts.Logger.Debug("workbook emitted",
		slog.String("file", res.FileName),
		slog.Int("sheets", len(f.GetSheetList())),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f      *excelize.File
	styles *styleCache
	opts   Options
	widths []float64
}

// set writes a value with a style. nil values only get the style.
func (w *sheetWriter) set(sheet string, col, row int, v any, k styleKey) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if v != nil {
		if err := w.f.SetCellValue(sheet, ref, v); err != nil {
			return err
		}
		w.track(col, v, k.format)
	}
	id, err := w.styles.get(k)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, ref, ref, id)
}

func (w *sheetWriter) merge(sheet string, col1, row1, col2, row2 int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return w.f.MergeCell(sheet, from, to)
}

// track widens the column to fit v
func (w *sheetWriter) track(col int, v any, format numberFormat) {
	for len(w.widths) < col {
		w.widths = append(w.widths, 0)
	}

	var n int
	switch x := v.(type) {
	case string:
		n = utf8.RuneCountInString(x)
	case float64:
		if format == formatPercent {
			n = 9
		} else {
			s := strconv.FormatFloat(x, 'f', 2, 64)
			n = len(s) + len(s)/3
		}
	default:
		n = len(fmt.Sprint(x))
	}
	if float64(n) > w.widths[col-1] {
		w.widths[col-1] = float64(n)
	}
}

// applyWidths sets tracked column widths, clamped to a readable range, and resets tracking.
func (w *sheetWriter) applyWidths(sheet string) error {
	for i, chars := range w.widths {
		width := chars + 2
		switch {
		case width < 10:
			width = 10
		case width > 60:
			width = 60
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	w.widths = w.widths[:0]
	return nil
}

func (w *sheetWriter) freeze(sheet string, cols, rows int) error {
	topLeft, err := excelize.CoordinatesToCellName(cols+1, rows+1)
	if err != nil {
		return err
	}
	pane := "bottomRight"
	if cols == 0 {
		pane = "bottomLeft"
	}
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      cols,
		YSplit:      rows,
		TopLeftCell: topLeft,
		ActivePane:  pane,
	})
}

// writeDetail emits the original columns followed by Period, Classification and Remark.
func (w *sheetWriter) writeDetail(sheet string, t model.SheetTable) error {
	headers := t.Headers
	for i, h := range headers {
		if err := w.set(sheet, i+1, 1, h, headerKey(colorHeaderOriginal)); err != nil {
			return err
		}
	}
	for i, h := range DetailSystemHeaders {
		if err := w.set(sheet, len(headers)+i+1, 1, h, headerKey(colorHeaderSystem)); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		excelRow := r + 2
		bg := stripe(r)

		for i, h := range headers {
			c := row.Values[h]
			k := styleKey{fill: bg, align: "left"}
			if c.IsNumber() {
				k.format, k.align = formatAmount, "right"
			}
			if err := w.set(sheet, i+1, excelRow, c.Value(), k); err != nil {
				return err
			}
		}

		system := []string{row.Period, row.Classification, row.Remark}
		for i, v := range system {
			var val any
			if v != "" {
				val = v
			}
			if err := w.set(sheet, len(headers)+i+1, excelRow, val, styleKey{fill: bg, align: "left"}); err != nil {
				return err
			}
		}
	}

	if err := w.applyWidths(sheet); err != nil {
		return err
	}
	return w.freeze(sheet, 0, 1)
}

// amountBand is the header colour and data tint of an amount column
func (w *sheetWriter) amountBand(ac model.AmountColumn) (header, tint string) {
	if ac.IsCumulative {
		return colorAmountCumulative, colorTintCumulative
	}
	year := 0
	if tok := yearToken.FindString(ac.YearLabel); tok != "" {
		year, _ = strconv.Atoi(tok)
	} else if tok := yearToken.FindString(ac.DateLabel); tok != "" {
		year, _ = strconv.Atoi(tok)
	}
	if year > 0 && year < w.opts.YearThreshold {
		return colorAmountPrevious, colorTintPrevious
	}
	return colorAmountCurrent, colorTintCurrent
}

type rekapSystemColumn struct {
	group  string
	title  string
	header string
	tint   string
}

var rekapSystemColumns = []rekapSystemColumn{
	{"MoM", RekapSystemHeaders[0], colorMoMHeader, colorSystemTint},
	{"MoM", RekapSystemHeaders[1], colorMoMHeader, colorSystemTint},
	{"MoM", RekapSystemHeaders[2], colorMoMReason, colorSystemTint},
	{"YoY", RekapSystemHeaders[3], colorYoYHeader, colorYoYTint},
	{"YoY", RekapSystemHeaders[4], colorYoYHeader, colorYoYTint},
	{"YoY", RekapSystemHeaders[5], colorYoYReason, colorYoYTint},
}

// writeRekap emits the two header rows, the original rekap columns and the six comparison columns.
func (w *sheetWriter) writeRekap(sheet string, t *model.RekapTable) error {
	width := len(t.Headers)
	for _, r := range t.Rows {
		if len(r.RawValues) > width {
			width = len(r.RawValues)
		}
	}

	amounts := make(map[int]model.AmountColumn, len(t.AmountCols))
	for _, ac := range t.AmountCols {
		amounts[ac.ColumnIndex] = ac
	}

	// row 1 labels that take part in horizontal merging; "" for vertically merged columns
	groups := make([]string, width+len(rekapSystemColumns))

	for c := 0; c < width; c++ {
		header := ""
		if c < len(t.Headers) {
			header = t.Headers[c]
		}
		if ac, ok := amounts[c]; ok {
			color, _ := w.amountBand(ac)
			if err := w.set(sheet, c+1, 1, ac.YearLabel, headerKey(color)); err != nil {
				return err
			}
			if err := w.set(sheet, c+1, 2, ac.DateLabel, headerKey(color)); err != nil {
				return err
			}
			groups[c] = ac.YearLabel
			continue
		}

		if err := w.set(sheet, c+1, 1, header, headerKey(colorHeaderOriginal)); err != nil {
			return err
		}
		if err := w.set(sheet, c+1, 2, nil, headerKey(colorHeaderOriginal)); err != nil {
			return err
		}
		if err := w.merge(sheet, c+1, 1, c+1, 2); err != nil {
			return err
		}
	}

	for i, sc := range rekapSystemColumns {
		col := width + i + 1
		if err := w.set(sheet, col, 1, sc.group, headerKey(sc.header)); err != nil {
			return err
		}
		if err := w.set(sheet, col, 2, sc.title, headerKey(sc.header)); err != nil {
			return err
		}
		groups[width+i] = sc.group
	}

	if err := w.mergeGroups(sheet, groups); err != nil {
		return err
	}

	for i, r := range t.Rows {
		if err := w.writeRekapRow(sheet, i, r, width, amounts); err != nil {
			return err
		}
	}

	if err := w.applyWidths(sheet); err != nil {
		return err
	}
	xSplit := t.AccountColIdx + 1
	if xSplit <= 0 || xSplit > width {
		xSplit = 0
	}
	return w.freeze(sheet, xSplit, 2)
}

// mergeGroups merges runs of identical non-empty row 1 labels.
func (w *sheetWriter) mergeGroups(sheet string, groups []string) error {
	start := 0
	for c := 1; c <= len(groups); c++ {
		if c < len(groups) && groups[c] == groups[start] {
			continue
		}
		if groups[start] != "" && c-1 > start {
			if err := w.merge(sheet, start+1, 1, c, 1); err != nil {
				return err
			}
		}
		start = c
	}
	return nil
}

func (w *sheetWriter) writeRekapRow(sheet string, i int, r model.RekapRow, width int, amounts map[int]model.AmountColumn) error {
	excelRow := i + 3

	rowFill := ""
	bold := false
	switch r.RowType {
	case model.RowCategory:
		rowFill, bold = colorCategoryRow, true
	case model.RowSubtotal:
		rowFill, bold = colorSubtotalRow, true
	}

	for c := 0; c < width; c++ {
		var cell model.Cell
		if c < len(r.RawValues) {
			cell = r.RawValues[c]
		}

		k := styleKey{fill: stripe(i), bold: bold, align: "left"}
		if _, ok := amounts[c]; ok {
			_, k.fill = w.amountBand(amounts[c])
			k.align = "right"
		}
		if cell.IsNumber() {
			k.format, k.align = formatAmount, "right"
		}
		if rowFill != "" {
			k.fill = rowFill
		}
		if err := w.set(sheet, c+1, excelRow, cell.Value(), k); err != nil {
			return err
		}
	}

	if r.RowType == model.RowEmpty {
		return nil
	}

	values := []any{r.GapMoM, r.PctMoM / 100, r.ReasonMoM, r.GapYoY, r.PctYoY / 100, r.ReasonYoY}
	for j, sc := range rekapSystemColumns {
		k := styleKey{fill: sc.tint, bold: bold, align: "left"}
		v := values[j]

		switch x := v.(type) {
		case float64:
			font, fill := signColors(x)
			k.font, k.align = font, "right"
			k.format = formatAmount
			if j == 1 || j == 4 {
				k.format = formatPercent
			}
			if fill != "" {
				k.fill = fill
			}
		case string:
			k.wrap = true
			if x == "" {
				v = nil
			}
		}
		if rowFill != "" {
			k.fill = rowFill
		}
		if err := w.set(sheet, width+j+1, excelRow, v, k); err != nil {
			return err
		}
	}
	return nil
}
