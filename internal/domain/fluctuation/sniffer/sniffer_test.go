package sniffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/sniffer"
)

func row(vals ...any) []model.Cell {
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

func TestDedupeHeaders(t *testing.T) {
	tests := []struct {
		name     string
		in       []string
		reserved []string
		want     []string
	}{
		{
			name: "repeats get numbered suffixes",
			in:   []string{"Amount", "Amount", "Text", "Amount"},
			want: []string{"Amount", "Amount_1", "Text", "Amount_2"},
		},
		{
			name: "blank labels become Col_n",
			in:   []string{"Doc", "", " ", "Doc"},
			want: []string{"Doc", "Col_2", "Col_3", "Doc_1"},
		},
		{
			name: "suffix skips labels already present",
			in:   []string{"A", "A_1", "A"},
			want: []string{"A", "A_1", "A_2"},
		},
		{
			name:     "reserved keys are never produced verbatim",
			in:       []string{"__period", "Text"},
			reserved: model.ReservedRowKeys,
			want:     []string{"__period_1", "Text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffer.DedupeHeaders(tt.in, tt.reserved...))
		})
	}
}

func TestFindHeaderRow(t *testing.T) {
	grid := model.Grid{
		row(nil, ""),
		row(),
		row(nil, "Posting Date", "Amount"),
		row(nil, 46041, 100),
	}
	got := sniffer.FindHeaderRow(grid)
	assert.Equal(t, 2, got.Value)
	assert.False(t, got.Fallback)

	empty := sniffer.FindHeaderRow(model.Grid{row(""), row()})
	assert.Equal(t, 0, empty.Value)
	assert.True(t, empty.Fallback)
}

func TestKeywordSetMatchIsCaseInsensitive(t *testing.T) {
	ks := sniffer.NewKeywordSet("Posting Date", "tgl")
	kw, ok := ks.Match("PSTNG / POSTING DATE")
	require.True(t, ok)
	assert.Equal(t, "posting date", kw)

	col, _ := ks.FirstColumn([]string{"Doc No", "Tgl Dok", "Posting date"})
	assert.Equal(t, 1, col, "first header from the left wins")

	col, _ = ks.FirstColumn([]string{"Doc No", "Tgl Dok", "Posting date"}, 1)
	assert.Equal(t, 2, col)
}

func TestClassifyColumnsKeywords(t *testing.T) {
	headers := []string{"Document No", "Pstng Date", "Amount in LC", "Item Text", "Klasifikasi", "Keterangan"}
	sample := [][]model.Cell{
		row("1900001", 46041, 1500000, "Accrued - Sewa gedung", "Sewa", "Tagihan Januari"),
	}

	roles := sniffer.ClassifyColumns(headers, sample)
	assert.Equal(t, 1, roles.Date.Value)
	assert.Equal(t, 1.0, roles.Date.Confidence)
	assert.Equal(t, 4, roles.Classification.Value, "first-tier keyword beats item text")
	assert.Equal(t, 5, roles.Remark.Value)
	assert.False(t, roles.Remark.Fallback)
}

func TestClassifyColumnsRemarkAliasesClassification(t *testing.T) {
	headers := []string{"Tanggal", "Nominal", "Keterangan"}
	sample := [][]model.Cell{
		row("19.01.2026", "1.000,00", "Biaya listrik kantor pusat"),
	}

	roles := sniffer.ClassifyColumns(headers, sample)
	assert.Equal(t, 0, roles.Date.Value)
	assert.Equal(t, 2, roles.Classification.Value, "text fallback picks the only text column")
	assert.Equal(t, 2, roles.Remark.Value, "remark shares the classification column")
}

func TestClassifyColumnsStatisticalFallback(t *testing.T) {
	headers := []string{"A", "B", "C", "D"}
	sample := [][]model.Cell{
		row("x", 46041, 100, "Pembayaran jasa konsultan pajak"),
		row("y", 46042, 200, "Sewa kendaraan operasional"),
		row("z", "20/01/2026", 300, "Listrik"),
		row("w", nil, 400, nil),
	}

	roles := sniffer.ClassifyColumns(headers, sample)
	assert.Equal(t, 1, roles.Date.Value)
	assert.InDelta(t, 1.0, roles.Date.Confidence, 1e-9)
	assert.Equal(t, 3, roles.Classification.Value)
	assert.Equal(t, -1, roles.Remark.Value)
	assert.True(t, roles.Remark.Fallback)
}

func TestClassifyColumnsNothingToFind(t *testing.T) {
	roles := sniffer.ClassifyColumns([]string{"A", "B"}, [][]model.Cell{row(1, 2), row(3, 4)})
	assert.Equal(t, -1, roles.Date.Value)
	assert.True(t, roles.Date.Fallback)
	assert.Equal(t, -1, roles.Classification.Value)
	assert.True(t, roles.Classification.Fallback)

	diags := roles.Diagnostics("21600001")
	require.Len(t, diags, 3)
	assert.Equal(t, "date_column", diags[0].Step)
	assert.Equal(t, "21600001", diags[0].Sheet)
}

func TestClassifyColumnsGenericDateHeaderNeedsDateValues(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		sample   [][]model.Cell
		want     int
		fallback bool
	}{
		{
			name:    "fiscal period numbers",
			headers: []string{"Document No", "Period", "Amount in LC", "Item Text"},
			sample: [][]model.Cell{
				row("DOC-1", 1, 1500000, "Sewa gedung"),
				row("DOC-2", 12, 250000, "Listrik"),
			},
			want:     -1,
			fallback: true,
		},
		{
			name:    "later date column wins over period numbers",
			headers: []string{"Period", "Doc Date", "Amount in LC"},
			sample: [][]model.Cell{
				row(1, 46041, 1500000),
				row(2, 46072, 250000),
			},
			want: 1,
		},
		{
			name:    "period holding dates",
			headers: []string{"Periode", "Nominal"},
			sample: [][]model.Cell{
				row("19.01.2026", "1.000,00"),
				row("20.01.2026", "2.000,00"),
			},
			want: 0,
		},
		{
			name:    "posting date keyword needs no agreement",
			headers: []string{"Period", "Posting Date"},
			sample: [][]model.Cell{
				row(1, "-"),
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := sniffer.ClassifyColumns(tt.headers, tt.sample)
			assert.Equal(t, tt.want, roles.Date.Value)
			assert.Equal(t, tt.fallback, roles.Date.Fallback)
		})
	}
}
