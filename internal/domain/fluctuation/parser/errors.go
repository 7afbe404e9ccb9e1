package parser

import (
	"errors"
	"fmt"
)

// ErrUnreadableWorkbook is returned when the upload is not a workbook excelize can open.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")

// SheetError reports a sheet that had to be skipped. The rest of the workbook is still processed.
type SheetError struct {
	SheetName string
	Step      string // "read", "detail", "rekap"
	Err       error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.SheetName, e.Step, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// NewSheetError creates a new SheetError.
func NewSheetError(sheetName, step string, err error) *SheetError {
	return &SheetError{
		SheetName: sheetName,
		Step:      step,
		Err:       err,
	}
}
