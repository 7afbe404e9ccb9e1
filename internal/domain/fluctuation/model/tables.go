package model

import (
	"encoding/json"
	"fmt"
)

// Keys of the derived fields inside a serialized detail row.
const (
	PeriodKey         = "__period"
	ClassificationKey = "__classification"
	RemarkKey         = "__remark"
)

// ReservedRowKeys lists the keys a detail-sheet header may never take
var ReservedRowKeys = []string{PeriodKey, ClassificationKey, RemarkKey}

// DetailRow is one data row of an account-code sheet: the original cells keyed by header,
// plus the three derived fields.
type DetailRow struct {
	Values         map[string]Cell
	Period         string
	Classification string
	Remark         string
}

// MarshalJSON flattens the row into a single object (header -> value plus derived keys).
func (r DetailRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+3)
	for k, v := range r.Values {
		out[k] = v
	}
	out[PeriodKey] = r.Period
	out[ClassificationKey] = r.Classification
	out[RemarkKey] = r.Remark
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat row object back into values and derived fields.
func (r *DetailRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	row := DetailRow{Values: make(map[string]Cell, len(raw))}
	for k, v := range raw {
		var c Cell
		if err := json.Unmarshal(v, &c); err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		switch k {
		case PeriodKey:
			row.Period = c.Text()
		case ClassificationKey:
			row.Classification = c.Text()
		case RemarkKey:
			row.Remark = c.Text()
		default:
			row.Values[k] = c
		}
	}

	*r = row
	return nil
}

// SheetTable is the extracted content of one account-code (detail) sheet.
type SheetTable struct {
	SheetName string      `json:"sheetName"`
	Headers   []string    `json:"headers"`
	Rows      []DetailRow `json:"rows"`
}

// AmountColumn is a rekap column detected as holding amounts.
type AmountColumn struct {
	ColumnIndex  int    `json:"columnIndex"`
	RawLabel     string `json:"rawLabel"`
	YearLabel    string `json:"yearLabel"`
	DateLabel    string `json:"dateLabel"`
	IsCumulative bool   `json:"isCumulative"`
}

// RowType is the structural role of a rekap row
type RowType string

const (
	RowCategory RowType = "category"
	RowSubtotal RowType = "subtotal"
	RowDetail   RowType = "detail"
	RowEmpty    RowType = "empty"
)

// RekapRow is one classified rekap row with its computed deltas.
type RekapRow struct {
	RawValues []Cell  `json:"rawValues"`
	RowType   RowType `json:"rowType"`
	GapMoM    float64 `json:"gapMoM"`
	PctMoM    float64 `json:"pctMoM"`
	GapYoY    float64 `json:"gapYoY"`
	PctYoY    float64 `json:"pctYoY"`
	ReasonMoM string  `json:"reasonMoM"`
	ReasonYoY string  `json:"reasonYoY"`
}

// RekapTable is the parsed summary sheet.
type RekapTable struct {
	SheetName     string         `json:"sheetName"`
	Headers       []string       `json:"headers"`
	AmountCols    []AmountColumn `json:"amountCols"`
	AccountColIdx int            `json:"accountColIdx"`
	MomCurrIdx    int            `json:"momCurrIdx"`
	MomPrevIdx    int            `json:"momPrevIdx"`
	YoyCurrIdx    int            `json:"yoyCurrIdx"`
	YoyPrevIdx    int            `json:"yoyPrevIdx"`
	Rows          []RekapRow     `json:"rows"`
}

// AmountColumnAt returns the amount column at position idx of AmountCols
func (t *RekapTable) AmountColumnAt(idx int) (AmountColumn, bool) {
	if t == nil || idx < 0 || idx >= len(t.AmountCols) {
		return AmountColumn{}, false
	}
	return t.AmountCols[idx], true
}

// IsAmountColumn reports whether the sheet column index is one of the amount columns.
func (t *RekapTable) IsAmountColumn(col int) (AmountColumn, bool) {
	if t == nil {
		return AmountColumn{}, false
	}
	for _, ac := range t.AmountCols {
		if ac.ColumnIndex == col {
			return ac, true
		}
	}
	return AmountColumn{}, false
}

// CountByType tallies rekap rows per row type
func (t *RekapTable) CountByType() map[RowType]int {
	counts := make(map[RowType]int, 4)
	if t == nil {
		return counts
	}
	for _, r := range t.Rows {
		counts[r.RowType]++
	}
	return counts
}

// Result is the intermediate representation handed from the analysis pass to the emitter.
// Diagnostics and Warnings are additive and never read by the emitter.
type Result struct {
	FileName       string       `json:"fileName"`
	SheetDataList  []SheetTable `json:"sheetDataList"`
	RekapSheetData *RekapTable  `json:"rekapSheetData"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
	Warnings       []string     `json:"warnings,omitempty"`
}
