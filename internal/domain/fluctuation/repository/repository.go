// Package repository persists the history of processed OI workbooks.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// ErrRunNotFound is returned when no run matches the ID for the owner.
var ErrRunNotFound = errors.New("run not found")

// Run is one processed workbook. Amount totals are in minor units of IDR.
type Run struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	FileName         string
	ExportName       string
	FileID           *uuid.UUID // nil when the workbook was not stored
	DetailSheets     int
	RekapSheet       string
	CategoryRows     int
	SubtotalRows     int
	DetailRows       int
	EmptyRows        int
	MoMCurrentMinor  int64
	MoMPreviousMinor int64
	Warnings         []string
	Diagnostics      []model.Diagnostic
	CreatedAt        time.Time
}

// RunRepository defines run history operations
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Run, error)
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Run, error)
	// ListCreatedBefore returns runs of every owner created before the cutoff
	ListCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DBTX is the subset of pgxpool.Pool used by the repository, so tests can pass pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
