package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/models"
)

// RunRecord is one row of the etl_runs history table.
type RunRecord struct {
	RunID       string
	SourceURL   string
	TableName   string
	CSVPath     string
	RowCount    int
	SkippedRows int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RecordRun appends a finished run to etl_runs. RunMigrations must have run first.
func RecordRun(ctx context.Context, db *sql.DB, run RunRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO etl_runs (run_id, source_url, table_name, csv_path, row_count, skipped_rows, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SourceURL, run.TableName, run.CSVPath, run.RowCount, run.SkippedRows,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: record run %s: %v", models.ErrStorage, run.RunID, err)
	}
	return nil
}

// GetRun loads a run by ID.
func GetRun(ctx context.Context, db *sql.DB, runID string) (*RunRecord, error) {
	var run RunRecord
	var started, finished string
	err := db.QueryRowContext(ctx, `
		SELECT run_id, source_url, table_name, csv_path, row_count, skipped_rows, started_at, finished_at
		FROM etl_runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.SourceURL, &run.TableName, &run.CSVPath, &run.RowCount, &run.SkippedRows, &started, &finished,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load run %s: %v", models.ErrStorage, runID, err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("%w: run %s started_at %q: %v", models.ErrStorage, runID, started, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("%w: run %s finished_at %q: %v", models.ErrStorage, runID, finished, err)
	}
	return &run, nil
}
