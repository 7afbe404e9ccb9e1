package exporter_test

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

func text(s string) model.Cell { return model.TextCell(s) }
func num(v float64) model.Cell { return model.NumberCell(v) }

func fixtureResult() *model.Result {
	return &model.Result{
		FileName: "OI Januari 2026.xlsx",
		SheetDataList: []model.SheetTable{
			{
				SheetName: "21600001001",
				Headers:   []string{"Posting Date", "Amount", "Text"},
				Rows: []model.DetailRow{
					{
						Values: map[string]model.Cell{
							"Posting Date": text("19.01.2026"),
							"Amount":       num(1500000),
							"Text":         text("Accrued - Sewa gedung"),
						},
						Period:         "2026.01",
						Classification: "Sewa gedung",
						Remark:         "Kenaikan tarif",
					},
				},
			},
		},
		RekapSheetData: &model.RekapTable{
			SheetName: "REKAP",
			Headers:   []string{"Account", "Description", "Jan 2025", "Des 2025", "Jan 2026"},
			AmountCols: []model.AmountColumn{
				{ColumnIndex: 2, RawLabel: "2025 Jan 2025", YearLabel: "2025", DateLabel: "Jan 2025"},
				{ColumnIndex: 3, RawLabel: "2025 Des 2025", YearLabel: "2025", DateLabel: "Des 2025"},
				{ColumnIndex: 4, RawLabel: "2026 Jan 2026", YearLabel: "2026", DateLabel: "Jan 2026"},
			},
			AccountColIdx: 0,
			MomCurrIdx:    2,
			MomPrevIdx:    1,
			YoyCurrIdx:    2,
			YoyPrevIdx:    0,
			Rows: []model.RekapRow{
				{RawValues: []model.Cell{{}, text("BEBAN OPERASIONAL"), {}, {}, {}}, RowType: model.RowCategory},
				{
					RawValues: []model.Cell{text("21600001001"), text("Beban sewa"), num(800), num(1000), num(1500)},
					RowType:   model.RowDetail,
					GapMoM:    500, PctMoM: 50, GapYoY: 700, PctYoY: 87.5,
					ReasonMoM: "Sewa gedung", ReasonYoY: "Kenaikan tarif",
				},
				{
					RawValues: []model.Cell{num(2160000000), text("Jumlah"), num(800), num(1000), num(1500)},
					RowType:   model.RowSubtotal,
					GapMoM:    500, PctMoM: 50, GapYoY: 700, PctYoY: 87.5,
				},
				{RawValues: []model.Cell{{}, {}, {}, {}, {}}, RowType: model.RowEmpty},
			},
		},
	}
}

func openOutput(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestWriteSheetOrder(t *testing.T) {
	data, err := exporter.New(exporter.DefaultOptions()).Write(fixtureResult())
	require.NoError(t, err)

	f := openOutput(t, data)
	assert.Equal(t, []string{"REKAP", "21600001001"}, f.GetSheetList())
	assert.Equal(t, 0, f.GetActiveSheetIndex())
}

func TestWriteRekapHeaders(t *testing.T) {
	data, err := exporter.New(exporter.DefaultOptions()).Write(fixtureResult())
	require.NoError(t, err)
	f := openOutput(t, data)

	assert.Equal(t, "Account", raw(t, f, "REKAP", "A1"))
	assert.Equal(t, "2025", raw(t, f, "REKAP", "C1"))
	assert.Equal(t, "Jan 2025", raw(t, f, "REKAP", "C2"))
	assert.Equal(t, "2026", raw(t, f, "REKAP", "E1"))
	assert.Equal(t, "MoM", raw(t, f, "REKAP", "F1"))
	assert.Equal(t, "YoY", raw(t, f, "REKAP", "I1"))

	for i, h := range exporter.RekapSystemHeaders {
		col, err := excelize.ColumnNumberToName(6 + i)
		require.NoError(t, err)
		assert.Equal(t, h, raw(t, f, "REKAP", col+"2"))
	}

	merges, err := f.GetMergeCells("REKAP")
	require.NoError(t, err)
	ranges := make([]string, len(merges))
	for i, m := range merges {
		ranges[i] = m.GetStartAxis() + ":" + m.GetEndAxis()
	}
	assert.ElementsMatch(t, []string{"A1:A2", "B1:B2", "C1:D1", "F1:H1", "I1:K1"}, ranges)
}

func TestWriteRekapRows(t *testing.T) {
	data, err := exporter.New(exporter.DefaultOptions()).Write(fixtureResult())
	require.NoError(t, err)
	f := openOutput(t, data)

	assert.Equal(t, "21600001001", raw(t, f, "REKAP", "A4"))
	assert.Equal(t, "1500", raw(t, f, "REKAP", "E4"))
	assert.Equal(t, "500", raw(t, f, "REKAP", "F4"))
	assert.Equal(t, "0.5", raw(t, f, "REKAP", "G4"), "percentages are stored as fractions")
	assert.Equal(t, "Sewa gedung", raw(t, f, "REKAP", "H4"))
	assert.Equal(t, "0.875", raw(t, f, "REKAP", "J4"))
	assert.Equal(t, "Kenaikan tarif", raw(t, f, "REKAP", "K4"))

	assert.Empty(t, raw(t, f, "REKAP", "F6"), "empty rows get no comparison values")

	styleID, err := f.GetCellStyle("REKAP", "B3")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, strings.ToUpper(style.Fill.Color[0]), "D9D9D9", "category rows get a solid fill")

	styleID, err = f.GetCellStyle("REKAP", "G4")
	require.NoError(t, err)
	style, err = f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, 10, style.NumFmt)
}

func TestWriteDetailSheet(t *testing.T) {
	data, err := exporter.New(exporter.DefaultOptions()).Write(fixtureResult())
	require.NoError(t, err)
	f := openOutput(t, data)

	rows, err := f.GetRows("21600001001", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Posting Date", "Amount", "Text", "Period", "Classification", "Remark"}, rows[0])
	assert.Equal(t, []string{"19.01.2026", "1500000", "Accrued - Sewa gedung", "2026.01", "Sewa gedung", "Kenaikan tarif"}, rows[1])
}

func TestWriteTruncatesSheetNames(t *testing.T) {
	long := strings.Repeat("2160000112345678", 3)
	res := &model.Result{
		SheetDataList: []model.SheetTable{
			{SheetName: long, Headers: []string{"A"}},
			{SheetName: long + "9", Headers: []string{"A"}},
			{SheetName: "216000011234567", Headers: []string{"A"}},
		},
	}

	data, err := exporter.New(exporter.Options{}).Write(res)
	require.NoError(t, err)
	f := openOutput(t, data)

	names := f.GetSheetList()
	require.Len(t, names, 3)
	assert.Equal(t, long[:31], names[0])
	assert.Equal(t, long[:29]+"_2", names[1])
	assert.Equal(t, "216000011234567", names[2])
	for _, n := range names {
		assert.LessOrEqual(t, utf8.RuneCountInString(n), exporter.MaxSheetNameLen)
	}
}

func TestWriteRekapAccountColumnOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		accountCol int
		wantXSplit int
	}{
		{"negative", -5, 0},
		{"past last column", 99, 0},
		{"first column", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := fixtureResult()
			res.RekapSheetData.AccountColIdx = tt.accountCol

			data, err := exporter.New(exporter.DefaultOptions()).Write(res)
			require.NoError(t, err)
			f := openOutput(t, data)

			panes, err := f.GetPanes("REKAP")
			require.NoError(t, err)
			assert.True(t, panes.Freeze)
			assert.Equal(t, tt.wantXSplit, panes.XSplit)
			assert.Equal(t, 2, panes.YSplit)
		})
	}
}

func TestWriteEmptyResult(t *testing.T) {
	data, err := exporter.New(exporter.DefaultOptions()).Write(nil)
	require.NoError(t, err)
	f := openOutput(t, data)
	assert.Len(t, f.GetSheetList(), 1)
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "Rekap (Jan)_2026", exporter.SanitizeSheetName("Rekap [Jan]/2026"))
	assert.Equal(t, "Sheet", exporter.SanitizeSheetName("  "))
	assert.Equal(t, "x", exporter.SanitizeSheetName("'x'"))
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OI Januari 2026.xlsx", "OI Januari 2026_HASIL.xlsx"},
		{"C:\\Users\\finance\\rekap.xlsx", "rekap_HASIL.xlsx"},
		{"../../etc/oi.xls", "oi_HASIL.xlsx"},
		{"", "OI_HASIL.xlsx"},
		{"bad\"name.xlsx", "badname_HASIL.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, exporter.ExportFileName(tt.in))
		})
	}
}

func TestRekapCSV(t *testing.T) {
	out, err := exporter.RekapCSV(fixtureResult().RekapSheetData)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4, "header plus three non-empty rows")
	assert.Equal(t, "row,account,row_type,mom_current,mom_previous,gap_mom,pct_mom,reason_mom,yoy_current,yoy_previous,gap_yoy,pct_yoy,reason_yoy", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "2,21600001001,detail,1500,1000,500,50,Sewa gedung,1500,800,700,87.5,"), lines[2])

	rows := exporter.RekapCSVRows(nil)
	assert.Nil(t, rows)
}
