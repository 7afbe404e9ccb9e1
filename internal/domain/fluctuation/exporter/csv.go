package exporter

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
)

// RekapCSVRow is one rekap row flattened to the comparison figures.
type RekapCSVRow struct {
	Row         int     `csv:"row"`
	Account     string  `csv:"account"`
	RowType     string  `csv:"row_type"`
	MoMCurrent  float64 `csv:"mom_current"`
	MoMPrevious float64 `csv:"mom_previous"`
	GapMoM      float64 `csv:"gap_mom"`
	PctMoM      float64 `csv:"pct_mom"`
	ReasonMoM   string  `csv:"reason_mom"`
	YoYCurrent  float64 `csv:"yoy_current"`
	YoYPrevious float64 `csv:"yoy_previous"`
	GapYoY      float64 `csv:"gap_yoy"`
	PctYoY      float64 `csv:"pct_yoy"`
	ReasonYoY   string  `csv:"reason_yoy"`
}

// RekapCSVRows flattens every non-empty rekap row. Row is the 1-based position in the table.
func RekapCSVRows(t *model.RekapTable) []RekapCSVRow {
	if t == nil {
		return nil
	}

	rows := make([]RekapCSVRow, 0, len(t.Rows))
	for i, r := range t.Rows {
		if r.RowType == model.RowEmpty {
			continue
		}
		account := ""
		if t.AccountColIdx >= 0 && t.AccountColIdx < len(r.RawValues) {
			account = strings.TrimSpace(r.RawValues[t.AccountColIdx].Text())
		}
		rows = append(rows, RekapCSVRow{
			Row:         i + 1,
			Account:     account,
			RowType:     string(r.RowType),
			MoMCurrent:  amountValue(t, r, t.MomCurrIdx),
			MoMPrevious: amountValue(t, r, t.MomPrevIdx),
			GapMoM:      r.GapMoM,
			PctMoM:      r.PctMoM,
			ReasonMoM:   r.ReasonMoM,
			YoYCurrent:  amountValue(t, r, t.YoyCurrIdx),
			YoYPrevious: amountValue(t, r, t.YoyPrevIdx),
			GapYoY:      r.GapYoY,
			PctYoY:      r.PctYoY,
			ReasonYoY:   r.ReasonYoY,
		})
	}
	return rows
}

// RekapCSV renders the rekap table as CSV with a header line.
func RekapCSV(t *model.RekapTable) ([]byte, error) {
	rows := RekapCSVRows(t)
	if rows == nil {
		rows = []RekapCSVRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rekap csv: %w", err)
	}
	return out, nil
}

func amountValue(t *model.RekapTable, r model.RekapRow, idx int) float64 {
	ac, ok := t.AmountColumnAt(idx)
	if !ok || ac.ColumnIndex >= len(r.RawValues) {
		return 0
	}
	return normalizer.ParseNumber(r.RawValues[ac.ColumnIndex])
}
