package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, owner_id, file_name, export_name, file_id, detail_sheets, rekap_sheet,
		category_rows, subtotal_rows, detail_rows, empty_rows, mom_current_minor, mom_previous_minor,
		warnings, diagnostics, created_at`

// PostgresRunRepository implements RunRepository using PostgreSQL
type PostgresRunRepository struct {
	db DBTX
}

func NewPostgresRunRepository(db DBTX) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts the run and fills ID and CreatedAt when they are zero.
func (r *PostgresRunRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	warnings, err := json.Marshal(nonNil(run.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	diagnostics, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	if run.Diagnostics == nil {
		diagnostics = []byte("[]")
	}

	query := `
		INSERT INTO fluctuation_runs (id, owner_id, file_name, export_name, file_id, detail_sheets, rekap_sheet,
			category_rows, subtotal_rows, detail_rows, empty_rows, mom_current_minor, mom_previous_minor,
			warnings, diagnostics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`

	err = r.db.QueryRow(ctx, query,
		run.ID,
		run.OwnerID,
		run.FileName,
		run.ExportName,
		run.FileID,
		run.DetailSheets,
		run.RekapSheet,
		run.CategoryRows,
		run.SubtotalRows,
		run.DetailRows,
		run.EmptyRows,
		run.MoMCurrentMinor,
		run.MoMPreviousMinor,
		warnings,
		diagnostics,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Get retrieves a run owned by ownerID
func (r *PostgresRunRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*Run, error) {
	query := `SELECT ` + runColumns + `
		FROM fluctuation_runs
		WHERE id = $1 AND owner_id = $2`

	run, err := scanRun(r.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the owner's runs, newest first
func (r *PostgresRunRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Run, error) {
	query := `SELECT ` + runColumns + `
		FROM fluctuation_runs
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return collectRuns(rows)
}

func (r *PostgresRunRepository) ListCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + `
		FROM fluctuation_runs
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired runs: %w", err)
	}
	return collectRuns(rows)
}

func (r *PostgresRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM fluctuation_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func collectRuns(rows pgx.Rows) ([]*Run, error) {
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	run := &Run{}
	var warnings, diagnostics []byte
	err := row.Scan(
		&run.ID,
		&run.OwnerID,
		&run.FileName,
		&run.ExportName,
		&run.FileID,
		&run.DetailSheets,
		&run.RekapSheet,
		&run.CategoryRows,
		&run.SubtotalRows,
		&run.DetailRows,
		&run.EmptyRows,
		&run.MoMCurrentMinor,
		&run.MoMPreviousMinor,
		&warnings,
		&diagnostics,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &run.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics: %w", err)
		}
	}
	return run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
