package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
)

func TestParseRekapStructure(t *testing.T) {
	table := parseFixture(t)

	assert.Equal(t, []string{"Account", "Description", "Total s.d. Des 2024", "Jan 2025", "Des 2025", "Jan 2026"}, table.Headers)
	assert.Equal(t, 0, table.AccountColIdx)

	require.Len(t, table.AmountCols, 4)
	assert.Equal(t, model.AmountColumn{
		ColumnIndex:  2,
		RawLabel:     "Saldo 2024 Total s.d. Des 2024",
		YearLabel:    "2024",
		DateLabel:    "Total s.d. Des 2024",
		IsCumulative: true,
	}, table.AmountCols[0])
	assert.Equal(t, "2025", table.AmountCols[2].YearLabel, "top label carries across the merged group")
	assert.False(t, table.AmountCols[3].IsCumulative)

	for _, ac := range table.AmountCols {
		assert.NotEqual(t, table.AccountColIdx, ac.ColumnIndex)
	}

	assert.Equal(t, 3, table.MomCurrIdx)
	assert.Equal(t, 2, table.MomPrevIdx)
	assert.Equal(t, 3, table.YoyCurrIdx)
	assert.Equal(t, 1, table.YoyPrevIdx, "first non-cumulative column is the YoY baseline")
}

func TestParseRekapRows(t *testing.T) {
	table := parseFixture(t)
	require.Len(t, table.Rows, 8, "trailing blank rows are dropped")

	want := []model.RowType{
		model.RowCategory,
		model.RowDetail,
		model.RowDetail,
		model.RowSubtotal,
		model.RowSubtotal,
		model.RowSubtotal,
		model.RowEmpty,
		model.RowDetail,
	}
	for i, w := range want {
		assert.Equal(t, w, table.Rows[i].RowType, "row %d", i)
		assert.Len(t, table.Rows[i].RawValues, len(table.Headers))
	}

	sewa := table.Rows[1]
	assert.InDelta(t, 500, sewa.GapMoM, 1e-9)
	assert.InDelta(t, 50, sewa.PctMoM, 1e-9)
	assert.InDelta(t, 700, sewa.GapYoY, 1e-9)
	assert.InDelta(t, 87.5, sewa.PctYoY, 1e-9)
	assert.Equal(t, "Sewa gedung; Sewa gudang", sewa.ReasonMoM)
	assert.Equal(t, "Kenaikan tarif", sewa.ReasonYoY)

	listrik := table.Rows[2]
	assert.InDelta(t, 250, listrik.GapMoM, 1e-9)
	assert.Zero(t, listrik.PctMoM, "zero baseline reports 0%")
	assert.Zero(t, listrik.PctYoY)
	assert.Empty(t, listrik.ReasonMoM)
	assert.Empty(t, listrik.ReasonYoY)
}

func TestParseRekapZeroDenominatorNeverNaN(t *testing.T) {
	table := parseFixture(t)
	for i, r := range table.Rows {
		if amount(r, table, table.MomPrevIdx) == 0 {
			assert.Zero(t, r.PctMoM, "row %d", i)
		}
		if amount(r, table, table.YoyPrevIdx) == 0 {
			assert.Zero(t, r.PctYoY, "row %d", i)
		}
	}
}

func amount(r model.RekapRow, table *model.RekapTable, idx int) float64 {
	c := r.RawValues[table.AmountCols[idx].ColumnIndex]
	if c.IsNumber() {
		return c.Number
	}
	return 0
}

func TestParseRekapFallbacks(t *testing.T) {
	grid := model.Grid{
		cells("only one label"),
		cells("Uraian"),
		cells("Beban"),
	}
	table, diags := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, parser.DefaultOptions())

	assert.Equal(t, 0, table.AccountColIdx)
	assert.Empty(t, table.AmountCols)
	assert.Zero(t, table.MomCurrIdx)
	assert.Zero(t, table.YoyPrevIdx)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, model.RowCategory, table.Rows[0].RowType)

	fellBack := map[string]bool{}
	for _, d := range diags {
		fellBack[d.Step] = d.Fallback
		assert.Equal(t, "REKAP", d.Sheet)
	}
	assert.True(t, fellBack["rekap_header_block"])
	assert.True(t, fellBack["account_column"])
	assert.True(t, fellBack["amount_columns"])
	assert.True(t, fellBack["comparison_columns"])
}

func TestParseRekapSingleAmountColumn(t *testing.T) {
	grid := model.Grid{
		cells("Account", "Saldo"),
		cells("No", "Des 2025"),
		cells("21600001001", 100),
		cells("21600001002", 200),
	}
	table, _ := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, parser.DefaultOptions())

	require.Len(t, table.AmountCols, 1)
	assert.Zero(t, table.MomCurrIdx)
	assert.Zero(t, table.MomPrevIdx)
	for _, r := range table.Rows {
		assert.Zero(t, r.GapMoM)
		assert.Zero(t, r.PctMoM)
	}
}

func TestParseRekapYoYByDate(t *testing.T) {
	grid := model.Grid{
		cells("Account", "Uraian", "2024", "2025", nil, "2026"),
		cells(nil, nil, "Nov", "Jan", "Des", "Jan"),
		cells("21600001001", "Beban sewa", 700, 800, 1000, 1500),
		cells("21600001002", "Beban listrik", 10, 20, 30, 40),
	}

	positional, _ := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, parser.DefaultOptions())
	assert.Equal(t, 0, positional.YoyPrevIdx)

	opts := parser.DefaultOptions()
	opts.YoYStrategy = parser.YoYByDate
	byDate, diags := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, opts)
	assert.Equal(t, 1, byDate.YoyPrevIdx, "Jan 2025 is twelve months before Jan 2026")
	assert.InDelta(t, 700, byDate.Rows[0].GapYoY, 1e-9)

	var found bool
	for _, d := range diags {
		if d.Step == "yoy_previous_column_by_date" {
			found = true
			assert.False(t, d.Fallback)
		}
	}
	assert.True(t, found)
}

func TestParseRekapYoYByDateFallsBackToPosition(t *testing.T) {
	grid := model.Grid{
		cells("Account", "A", "B"),
		cells(nil, "Saldo awal", "Saldo akhir"),
		cells("21600001001", 1, 2),
		cells("21600001002", 3, 4),
	}
	opts := parser.DefaultOptions()
	opts.YoYStrategy = parser.YoYByDate

	table, _ := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, opts)
	assert.Equal(t, 0, table.YoyPrevIdx)
	assert.Equal(t, 1, table.YoyCurrIdx)
}

func TestParseRekapCumulativeFromOwnLabel(t *testing.T) {
	grid := model.Grid{
		cells("Account", "Uraian", "Total 2025", nil, "2026", nil, "YTD 2026"),
		cells(nil, nil, "Jan 2025", "Des 2025", "Jan 2026", "s.d. Jan 2026", nil),
		cells("21600001001", "Beban sewa", 800, 1000, 1500, 1500, 1500),
		cells("21600001002", "Beban listrik", 20, 30, 40, 40, 40),
	}
	table, _ := parser.ParseRekap("REKAP", grid, model.AccountReasonMap{}, parser.DefaultOptions())
	require.Len(t, table.AmountCols, 5)

	tests := []struct {
		name       string
		idx        int
		cumulative bool
	}{
		{"carried group label", 0, false},
		{"second column under the group", 1, false},
		{"plain month", 2, false},
		{"own bottom label", 3, true},
		{"top label without bottom", 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.cumulative, table.AmountCols[tt.idx].IsCumulative, table.AmountCols[tt.idx].RawLabel)
		})
	}
	assert.Equal(t, "2025", table.AmountCols[1].YearLabel)
	assert.Equal(t, 0, table.YoyPrevIdx, "Jan 2025 stays the YoY baseline under a Total group")
}
