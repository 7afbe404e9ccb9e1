// Package model holds the shared data types of the fluctuation (OI) reconciliation engine.
// The same types back the interactive preview and the styled export, so both entry points
// read one intermediate representation instead of re-deriving it.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CellKind identifies what a raw spreadsheet cell holds
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single raw value read from a worksheet: a string, a number, or nothing.
type Cell struct {
	Kind   CellKind
	Str    string
	Number float64
}

// Grid is the positional content of one sheet. It is never mutated after reading.
type Grid [][]Cell

// TextCell builds a text cell. An empty string yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Str: s}
}

// NumberCell builds a numeric cell
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// IsBlank reports whether the cell is empty or whitespace-only text.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Str) == ""
	}
	return false
}

// IsNumber reports whether the cell was stored as a number in the workbook
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// Text returns the display text of the cell. Numbers are rendered without exponent
// or trailing zeros so account codes stored as numbers round-trip as digits.
func (c Cell) Text() string {
	switch c.Kind {
	case CellText:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return ""
}

// Value returns the cell as a plain Go value (string, float64 or nil), the shape excelize
// and encoding/json expect.
func (c Cell) Value() any {
	switch c.Kind {
	case CellText:
		return c.Str
	case CellNumber:
		return c.Number
	}
	return nil
}

func (c Cell) String() string {
	return c.Text()
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and empty cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// UnmarshalJSON accepts any JSON scalar. Booleans become text, objects and arrays are rejected.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Cell{}
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*c = TextCell(v)
	case float64:
		*c = NumberCell(v)
	case bool:
		*c = TextCell(strings.ToUpper(strconv.FormatBool(v)))
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// At returns the cell at (row, col) or an empty cell when out of range.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Cell{}
	}
	return g[row][col]
}

// Width returns the widest row length in the grid
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// RowIsBlank reports whether every cell of the row is empty or whitespace.
func RowIsBlank(row []Cell) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// NonBlankCount counts the non-empty cells of a row
func NonBlankCount(row []Cell) int {
	n := 0
	for _, c := range row {
		if !c.IsBlank() {
			n++
		}
	}
	return n
}
