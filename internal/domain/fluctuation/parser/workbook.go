// Package parser turns an uploaded OI workbook into the intermediate representation shared by
// the preview and the export: detail sheets keyed by account code, and the classified rekap
// table with its MoM/YoY deltas and reasons.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

var accountSheetPattern = regexp.MustCompile(`^\d+$`)

// IsAccountSheet reports whether a sheet name is a bare account code (detail sheet)
func IsAccountSheet(name string) bool {
	return accountSheetPattern.MatchString(strings.TrimSpace(name))
}

// Sheet is one worksheet read into memory
type Sheet struct {
	Name string
	Grid model.Grid
}

// Workbook holds every readable sheet in workbook order. Sheets that could not be read are
// listed in Errors instead.
type Workbook struct {
	Sheets []Sheet
	Errors []*SheetError
}

// SheetNames returns the names of the readable sheets
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet looks up a sheet by exact name.
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// ReadWorkbookBytes is ReadWorkbook over an in-memory upload
func ReadWorkbookBytes(data []byte) (*Workbook, error) {
	return ReadWorkbook(bytes.NewReader(data))
}

// ReadWorkbook loads every sheet of an xlsx stream into typed grids. Cells keep their stored
// type: shared and inline strings stay text even when they look numeric, so account codes
// such as "0021600001" are not mangled.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		grid, err := readGrid(f, name)
		if err != nil {
			wb.Errors = append(wb.Errors, NewSheetError(name, "read", err))
			continue
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Grid: grid})
	}

	if len(wb.Sheets) == 0 && len(wb.Errors) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, wb.Errors[0])
	}
	return wb, nil
}

func readGrid(f *excelize.File, sheet string) (model.Grid, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	grid := make(model.Grid, len(rows))
	for r, row := range rows {
		cells := make([]model.Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, ref)
			if err != nil {
				return nil, err
			}
			cells[c] = typedCell(raw, typ)
		}
		grid[r] = cells
	}
	return grid, nil
}

func typedCell(raw string, typ excelize.CellType) model.Cell {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return model.NumberCell(v)
		}
	}
	return model.TextCell(raw)
}
