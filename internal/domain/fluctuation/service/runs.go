package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/repository"
	"github.com/FACorreiaa/sig-activa/pkg/money"
	"github.com/FACorreiaa/sig-activa/pkg/storage"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
	purgeBatchSize  = 100
)

// RunSummary describes one processed workbook.
type RunSummary struct {
	ID           uuid.UUID             `json:"id"`
	FileName     string                `json:"fileName"`
	ExportName   string                `json:"exportName"`
	DetailSheets int                   `json:"detailSheets"`
	RekapSheet   string                `json:"rekapSheet,omitempty"`
	RowCounts    map[model.RowType]int `json:"rowCounts"`
	// MoM totals over detail rows of the rekap table
	MoMCurrentTotal  *money.Money `json:"momCurrentTotal"`
	MoMPreviousTotal *money.Money `json:"momPreviousTotal"`
	Fallbacks        int          `json:"fallbacks"`
	Warnings         []string     `json:"warnings,omitempty"`
	Downloadable     bool         `json:"downloadable"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Summarize builds the run record for a result. ID, owner and file fields are left to the caller.
func Summarize(res *model.Result) *repository.Run {
	run := &repository.Run{
		FileName:    res.FileName,
		ExportName:  exporter.ExportFileName(res.FileName),
		Warnings:    res.Warnings,
		Diagnostics: res.Diagnostics,
	}
	run.DetailSheets = len(res.SheetDataList)

	if t := res.RekapSheetData; t != nil {
		run.RekapSheet = t.SheetName
		counts := t.CountByType()
		run.CategoryRows = counts[model.RowCategory]
		run.SubtotalRows = counts[model.RowSubtotal]
		run.DetailRows = counts[model.RowDetail]
		run.EmptyRows = counts[model.RowEmpty]

		var curr, prev []float64
		for _, r := range exporter.RekapCSVRows(t) {
			if r.RowType != string(model.RowDetail) {
				continue
			}
			curr = append(curr, r.MoMCurrent)
			prev = append(prev, r.MoMPrevious)
		}
		run.MoMCurrentMinor = money.Sum(money.IDR, curr...).Amount()
		run.MoMPreviousMinor = money.Sum(money.IDR, prev...).Amount()
	}
	return run
}

func toSummary(run *repository.Run) *RunSummary {
	fallbacks := 0
	for _, d := range run.Diagnostics {
		if d.Fallback {
			fallbacks++
		}
	}
	return &RunSummary{
		ID:           run.ID,
		FileName:     run.FileName,
		ExportName:   run.ExportName,
		DetailSheets: run.DetailSheets,
		RekapSheet:   run.RekapSheet,
		RowCounts: map[model.RowType]int{
			model.RowCategory: run.CategoryRows,
			model.RowSubtotal: run.SubtotalRows,
			model.RowDetail:   run.DetailRows,
			model.RowEmpty:    run.EmptyRows,
		},
		MoMCurrentTotal:  money.New(run.MoMCurrentMinor, money.IDR),
		MoMPreviousTotal: money.New(run.MoMPreviousMinor, money.IDR),
		Fallbacks:        fallbacks,
		Warnings:         run.Warnings,
		Downloadable:     run.FileID != nil,
		CreatedAt:        run.CreatedAt,
	}
}

// Process analyses and renders the upload, stores the workbook and records the run.
func (s *Service) Process(ctx context.Context, ownerID uuid.UUID, up Upload) (summary *RunSummary, err error) {
	if s.runs == nil || s.store == nil {
		return nil, ErrHistoryDisabled
	}

	ctx, span := s.tracer.Start(ctx, "fluctuation.Process", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
	))
	start := time.Now()
	defer func() { s.finish(span, "process", start, err) }()

	res, err := s.Analyze(ctx, up)
	if err != nil {
		return nil, err
	}
	data, name, err := s.Export(ctx, res)
	if err != nil {
		return nil, err
	}

	info, err := s.store.Save(ctx, ownerID, name, exporter.ContentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	run := Summarize(res)
	run.ID = uuid.New()
	run.OwnerID = ownerID
	run.ExportName = name
	run.FileID = &info.ID
	if err := s.runs.Create(ctx, run); err != nil {
		if derr := s.store.Delete(ctx, ownerID, info.ID); derr != nil {
			s.logger.Warn("failed to remove orphaned workbook",
				slog.String("file_id", info.ID.String()),
				slog.Any("error", derr))
		}
		return nil, fmt.Errorf("record run: %w", err)
	}

	s.logger.Info("run recorded",
		slog.String("run_id", run.ID.String()),
		slog.String("file", run.FileName),
		slog.Int("detail_rows", run.DetailRows),
		slog.String("mom_current_total", money.New(run.MoMCurrentMinor, money.IDR).Display()),
	)
	return toSummary(run), nil
}

// ListRuns returns the owner's runs, newest first. limit is clamped to [1, 100], default 20.
func (s *Service) ListRuns(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*RunSummary, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	limit = min(limit, maxRunLimit)
	offset = max(offset, 0)

	runs, err := s.runs.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*RunSummary, len(runs))
	for i, r := range runs {
		out[i] = toSummary(r)
	}
	return out, nil
}

// GetRun returns one run of the owner or an error wrapping repository.ErrRunNotFound.
func (s *Service) GetRun(ctx context.Context, ownerID, runID uuid.UUID) (*RunSummary, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	run, err := s.runs.Get(ctx, ownerID, runID)
	if err != nil {
		return nil, err
	}
	return toSummary(run), nil
}

// Download opens the stored workbook of a run. The caller closes the reader.
func (s *Service) Download(ctx context.Context, ownerID, runID uuid.UUID) (io.ReadCloser, *storage.FileInfo, error) {
	if s.runs == nil || s.store == nil {
		return nil, nil, ErrHistoryDisabled
	}
	run, err := s.runs.Get(ctx, ownerID, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.FileID == nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, storage.ErrFileNotFound)
	}
	return s.store.Open(ctx, ownerID, *run.FileID)
}

// PurgeExpired deletes runs created before the cutoff together with their stored
// workbooks and returns how many runs were removed. Owners touched by the purge also lose
// any stored workbook older than the cutoff that no run points to.
func (s *Service) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	if s.runs == nil {
		return 0, ErrHistoryDisabled
	}

	purged := 0
	owners := make(map[uuid.UUID]struct{})
	for {
		batch, err := s.runs.ListCreatedBefore(ctx, before, purgeBatchSize)
		if err != nil {
			return purged, err
		}
		for _, run := range batch {
			if run.FileID != nil && s.store != nil {
				err := s.store.Delete(ctx, run.OwnerID, *run.FileID)
				if err != nil && !errors.Is(err, storage.ErrFileNotFound) {
					return purged, fmt.Errorf("delete workbook of run %s: %w", run.ID, err)
				}
			}
			if err := s.runs.Delete(ctx, run.ID); err != nil && !errors.Is(err, repository.ErrRunNotFound) {
				return purged, err
			}
			owners[run.OwnerID] = struct{}{}
			purged++
		}
		if len(batch) < purgeBatchSize {
			break
		}
	}

	if s.store == nil {
		return purged, nil
	}
	for owner := range owners {
		swept, err := s.sweepOrphans(ctx, owner, before)
		if err != nil {
			return purged, err
		}
		if swept > 0 {
			s.logger.Info("removed orphaned workbooks",
				slog.String("owner_id", owner.String()),
				slog.Int("count", swept))
		}
	}
	return purged, nil
}

// sweepOrphans deletes the owner's stored files created before the cutoff. Every run
// older than the cutoff is already gone, so such files belong to no run.
func (s *Service) sweepOrphans(ctx context.Context, ownerID uuid.UUID, before time.Time) (int, error) {
	files, err := s.store.List(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list workbooks of owner %s: %w", ownerID, err)
	}
	swept := 0
	for _, f := range files {
		if !f.CreatedAt.Before(before) {
			continue
		}
		if err := s.store.Delete(ctx, ownerID, f.ID); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return swept, fmt.Errorf("delete orphaned workbook %s: %w", f.ID, err)
		}
		swept++
	}
	return swept, nil
}
