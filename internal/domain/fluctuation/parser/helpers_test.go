package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
)

func cells(vals ...any) []model.Cell {
	out := make([]model.Cell, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
		case string:
			out[i] = model.TextCell(x)
		case int:
			out[i] = model.NumberCell(float64(x))
		case float64:
			out[i] = model.NumberCell(x)
		}
	}
	return out
}

type sheetFixture struct {
	name string
	rows [][]any
}

// buildWorkbook writes the fixtures into an in-memory xlsx, in order.
func buildWorkbook(t *testing.T, sheets ...sheetFixture) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			ref, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			vals := make([]interface{}, len(row))
			copy(vals, row)
			require.NoError(t, f.SetSheetRow(s.name, ref, &vals))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// rekapGrid is a summary sheet with a title row, a two-row header, one cumulative column
// and three monthly columns.
func rekapGrid() model.Grid {
	return model.Grid{
		cells("REKAP OI JANUARI 2026"),
		cells("Account", "Description", "Saldo 2024", "Tahun 2025", nil, "Tahun 2026"),
		cells(nil, nil, "Total s.d. Des 2024", "Jan 2025", "Des 2025", "Jan 2026"),
		cells(nil, "BEBAN OPERASIONAL"),
		cells("21600001001", "Beban sewa", 12000, 800, 1000, 1500),
		cells("21600001002", "Beban listrik", "1.200,00", 0, "0", 250),
		cells(2160000000, "Beban", 1, 2, 3, 4),
		cells(nil, "Jumlah Beban", 12001, 802, 1003, 1754),
		cells(nil, nil, nil, nil, 500),
		cells(),
		cells("21600001003", "Beban lain"),
		cells(nil, ""),
		cells(),
	}
}

func reasonFixture() model.AccountReasonMap {
	m := model.AccountReasonMap{}
	m.Add("21600001001", "Sewa gedung", "Kenaikan tarif")
	m.Add("21600001001", "Sewa gudang", "Kenaikan tarif")
	return m
}

func parseFixture(t *testing.T) *model.RekapTable {
	t.Helper()
	table, _ := parser.ParseRekap("REKAP", rekapGrid(), reasonFixture(), parser.DefaultOptions())
	require.NotNil(t, table)
	return table
}
