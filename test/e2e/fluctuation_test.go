// Package e2etest provides end-to-end tests for the fluctuation flows through the API router.
package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/sig-activa/cmd/api"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/handler"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/pkg/config"
	"github.com/FACorreiaa/sig-activa/pkg/rpc"
)

const testDataDir = "../../internal/data/oi"

type account struct {
	code       string
	prevYear   float64
	prevMonth  float64
	currMonth  float64
	remarkText string
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{MaxUploadMB: 10, ShutdownTimeout: time.Second},
		Fluctuation: config.FluctuationConfig{
			AmountDensity: 0.4,
			YoYStrategy:   "position",
			YearThreshold: 2025,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := api.InitDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv
}

// generatedWorkbook builds an OI workbook with n random accounts under one category.
func generatedWorkbook(t *testing.T, n int) ([]byte, []account) {
	t.Helper()
	faker := gofakeit.New(7)

	accounts := make([]account, n)
	for i := range accounts {
		accounts[i] = account{
			code:       fmt.Sprintf("216%08d", i+1),
			prevYear:   float64(faker.Number(1000, 9000000)),
			prevMonth:  float64(faker.Number(1000, 9000000)),
			currMonth:  float64(faker.Number(1000, 9000000)),
			remarkText: "Sewa " + faker.LetterN(8),
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "REKAP"))

	rekap := [][]any{
		{"Account", "Description", "Tahun 2025", nil, "Tahun 2026"},
		{nil, nil, "Jan 2025", "Des 2025", "Jan 2026"},
		{nil, "BEBAN OPERASIONAL"},
	}
	var sumYear, sumPrev, sumCurr float64
	for _, a := range accounts {
		rekap = append(rekap, []any{a.code, "Beban " + a.remarkText, a.prevYear, a.prevMonth, a.currMonth})
		sumYear += a.prevYear
		sumPrev += a.prevMonth
		sumCurr += a.currMonth

		_, err := f.NewSheet(a.code)
		require.NoError(t, err)
		detail := [][]any{
			{"Posting Date", "Amount", "Item Text"},
			{"15.01.2026", a.currMonth, "Accrued - " + a.remarkText},
		}
		writeRows(t, f, a.code, detail)
	}
	rekap = append(rekap, []any{nil, "Jumlah Beban", sumYear, sumPrev, sumCurr})
	writeRows(t, f, "REKAP", rekap)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes(), accounts
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := append([]any(nil), row...)
		require.NoError(t, f.SetSheetRow(sheet, ref, &vals))
	}
}

func analyze(t *testing.T, srv *httptest.Server, name string, data []byte) *model.Result {
	t.Helper()
	client := connect.NewClient[handler.AnalyzeRequest, handler.AnalyzeResponse](
		srv.Client(), srv.URL+handler.AnalyzeProcedure, rpc.WithJSON(),
	)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&handler.AnalyzeRequest{
		FileName: name,
		Content:  data,
	}))
	require.NoError(t, err)
	require.NotNil(t, resp.Msg.Result)
	return resp.Msg.Result
}

func export(t *testing.T, srv *httptest.Server, res *model.Result) *excelize.File {
	t.Helper()
	payload, err := json.Marshal(res)
	require.NoError(t, err)

	resp, err := srv.Client().Post(srv.URL+"/api/fluctuation/export", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, exporter.ContentType, resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// TestGeneratedWorkbook_AnalyzeThenExport runs a generated workbook through the connect
// Analyze procedure and posts the result back to the export route.
func TestGeneratedWorkbook_AnalyzeThenExport(t *testing.T) {
	srv := newServer(t)
	data, accounts := generatedWorkbook(t, 25)

	res := analyze(t, srv, "OI Januari 2026.xlsx", data)

	t.Run("DetailSheets", func(t *testing.T) {
		require.Len(t, res.SheetDataList, len(accounts))
		for i, s := range res.SheetDataList {
			assert.Equal(t, accounts[i].code, s.SheetName)
			require.Len(t, s.Rows, 1)
		}
	})

	t.Run("RekapRows", func(t *testing.T) {
		rekap := res.RekapSheetData
		require.NotNil(t, rekap)
		assert.Equal(t, "REKAP", rekap.SheetName)

		counts := rekap.CountByType()
		assert.Equal(t, 1, counts[model.RowCategory])
		assert.Equal(t, len(accounts), counts[model.RowDetail])
		assert.Equal(t, 1, counts[model.RowSubtotal])

		i := 0
		for _, row := range rekap.Rows {
			if row.RowType != model.RowDetail {
				continue
			}
			a := accounts[i]
			assert.InDelta(t, a.currMonth-a.prevMonth, row.GapMoM, 0.001, a.code)
			assert.InDelta(t, a.currMonth-a.prevYear, row.GapYoY, 0.001, a.code)
			i++
		}
	})

	t.Run("Export", func(t *testing.T) {
		f := export(t, srv, res)
		sheets := f.GetSheetList()
		require.Len(t, sheets, len(accounts)+1)
		assert.Equal(t, "REKAP", sheets[0])

		v, err := f.GetCellValue("REKAP", "F1")
		require.NoError(t, err)
		assert.Equal(t, "MoM", v)
	})
}

// TestSampleWorkbook runs a real OI workbook when one is present in the data directory.
func TestSampleWorkbook(t *testing.T) {
	xlsxPath := filepath.Join(testDataDir, "oi-sample.xlsx")

	data, err := os.ReadFile(xlsxPath)
	if os.IsNotExist(err) {
		t.Skipf("Test data file not found: %s (add an OI workbook to run this test)", xlsxPath)
	}
	require.NoError(t, err)

	srv := newServer(t)
	res := analyze(t, srv, filepath.Base(xlsxPath), data)

	for _, d := range res.Diagnostics {
		t.Logf("%s %s=%q confidence=%.2f fallback=%v", d.Sheet, d.Step, d.Value, d.Confidence, d.Fallback)
	}
	for _, w := range res.Warnings {
		t.Logf("warning: %s", w)
	}

	f := export(t, srv, res)
	assert.NotEmpty(t, f.GetSheetList())
}
