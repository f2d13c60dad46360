package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReportRun records one generated report: which entity and window it
// covered and where the rendered output landed. Only the run metadata is
// stored; the computed figures are recomputed from samples on demand.
type ReportRun struct {
	ID         int       `json:"id"`
	Entity     string    `json:"entity"`
	Variant    string    `json:"variant"`
	StartDate  string    `json:"start_date"` // YYYY-MM-DD
	EndDate    string    `json:"end_date"`   // YYYY-MM-DD
	RunID      string    `json:"run_id"`
	OutputPath string    `json:"output_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateReportRun inserts a run record and fills in its ID.
func (db *DB) CreateReportRun(run *ReportRun) error {
	result, err := db.Exec(`
		INSERT INTO report_runs (entity, variant, start_date, end_date, run_id, output_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Entity, run.Variant, run.StartDate, run.EndDate, run.RunID, run.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create report run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	run.ID = int(id)
	return nil
}

// GetReportRun retrieves a run by ID.
func (db *DB) GetReportRun(id int) (*ReportRun, error) {
	var run ReportRun
	err := db.QueryRow(`
		SELECT id, entity, variant, start_date, end_date, run_id, output_path, created_at
		FROM report_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Entity, &run.Variant, &run.StartDate, &run.EndDate,
		&run.RunID, &run.OutputPath, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report run: %w", err)
	}
	return &run, nil
}

// ListRecentReportRuns returns the most recent runs, newest first.
func (db *DB) ListRecentReportRuns(limit int) ([]ReportRun, error) {
	rows, err := db.Query(`
		SELECT id, entity, variant, start_date, end_date, run_id, output_path, created_at
		FROM report_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var run ReportRun
		if err := rows.Scan(&run.ID, &run.Entity, &run.Variant, &run.StartDate, &run.EndDate,
			&run.RunID, &run.OutputPath, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteReportRun deletes a run record by ID.
func (db *DB) DeleteReportRun(id int) error {
	result, err := db.Exec(`DELETE FROM report_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report run %d not found", id)
	}
	return nil
}
