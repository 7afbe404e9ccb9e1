// Package service orchestrates the OI pipeline: reading an uploaded workbook,
// analysing it, rendering the styled result, and keeping a history of runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/repository"
	"github.com/FACorreiaa/sig-activa/pkg/observability"
	"github.com/FACorreiaa/sig-activa/pkg/storage"
)

const tracerName = "github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"

var (
	// ErrEmptyUpload is returned when the uploaded workbook has no bytes.
	ErrEmptyUpload = errors.New("uploaded workbook is empty")
	// ErrHistoryDisabled is returned by run operations when no run repository is configured.
	ErrHistoryDisabled = errors.New("run history is not enabled")
)

// Upload is one workbook submitted for analysis.
type Upload struct {
	FileName string
	Data     []byte
	// RekapSheet optionally names the rekap sheet when the workbook has zero or several candidates.
	RekapSheet string
}

// Config bundles the tuning passed down to the parser and the emitter.
type Config struct {
	Parser   parser.Options
	Exporter exporter.Options
	Metrics  *observability.Metrics
}

// Service implements the fluctuation use cases.
type Service struct {
	runs    repository.RunRepository
	store   storage.Storage
	opts    parser.Options
	emitter *exporter.Emitter
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewService wires the service. runs and store may be nil; run history operations
// then return ErrHistoryDisabled.
func NewService(runs repository.RunRepository, store storage.Storage, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Parser.Logger = logger
	cfg.Exporter.Logger = logger

	return &Service{
		runs:    runs,
		store:   store,
		opts:    cfg.Parser,
		emitter: exporter.New(cfg.Exporter),
		metrics: cfg.Metrics,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// Analyze reads and analyses the uploaded workbook. An unreadable workbook returns an
// error wrapping parser.ErrUnreadableWorkbook; a panic anywhere in the pass is returned
// as an error carrying the panic message.
func (s *Service) Analyze(ctx context.Context, up Upload) (res *model.Result, err error) {
	ctx, span := s.tracer.Start(ctx, "fluctuation.Analyze", trace.WithAttributes(
		attribute.String("file.name", up.FileName),
		attribute.Int("file.size", len(up.Data)),
	))
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = s.recovered("analyze", up.FileName, p)
		}
		s.finish(span, "analyze", start, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	wb, err := parser.ReadWorkbookBytes(up.Data)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", displayName(up.FileName), err)
	}

	opts := s.opts
	if up.RekapSheet != "" {
		opts.RekapSheet = up.RekapSheet
	}
	res = parser.Analyze(displayName(up.FileName), wb, opts)
	s.observeResult(res)

	span.SetAttributes(
		attribute.Int("oi.detail_sheets", len(res.SheetDataList)),
		attribute.Int("oi.warnings", len(res.Warnings)),
	)
	return res, nil
}

// Export renders the result to the styled workbook and returns it with its download name.
func (s *Service) Export(ctx context.Context, res *model.Result) (data []byte, name string, err error) {
	_, span := s.tracer.Start(ctx, "fluctuation.Export")
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = s.recovered("export", resultName(res), p)
		}
		s.finish(span, "export", start, err)
	}()

	data, err = s.emitter.Write(res)
	if err != nil {
		return nil, "", fmt.Errorf("export %s: %w", resultName(res), err)
	}
	span.SetAttributes(attribute.Int("xlsx.size", len(data)))
	return data, exporter.ExportFileName(resultName(res)), nil
}

// ExportCSV renders the rekap rows as CSV and returns it with its download name.
func (s *Service) ExportCSV(ctx context.Context, res *model.Result) ([]byte, string, error) {
	_, span := s.tracer.Start(ctx, "fluctuation.ExportCSV")
	start := time.Now()

	var table *model.RekapTable
	if res != nil {
		table = res.RekapSheetData
	}
	data, err := exporter.RekapCSV(table)
	s.finish(span, "export_csv", start, err)
	if err != nil {
		return nil, "", fmt.Errorf("export csv %s: %w", resultName(res), err)
	}
	return data, csvFileName(resultName(res)), nil
}

func (s *Service) observeResult(res *model.Result) {
	if s.metrics == nil {
		return
	}
	for rowType, n := range res.RekapSheetData.CountByType() {
		s.metrics.Rows.WithLabelValues(string(rowType)).Add(float64(n))
	}
	for _, d := range res.Diagnostics {
		if d.Fallback {
			s.metrics.Fallbacks.WithLabelValues(d.Step).Inc()
		}
	}
}

func (s *Service) recovered(op, file string, p any) error {
	s.logger.Error("recovered from panic",
		slog.String("operation", op),
		slog.String("file", file),
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())),
	)
	return fmt.Errorf("%s %s: unexpected failure: %v", op, displayName(file), p)
}

func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.CountWorkbook(op, err)
	s.metrics.ObserveDuration(op, start)
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "upload.xlsx"
	}
	return name
}

func resultName(res *model.Result) string {
	if res == nil {
		return ""
	}
	return res.FileName
}

// csvFileName derives "<base>_HASIL.csv" from the uploaded name.
func csvFileName(uploaded string) string {
	name := exporter.ExportFileName(uploaded)
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
}
