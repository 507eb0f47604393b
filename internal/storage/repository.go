// Package storage archives run outcomes in SQLite. The archive is an
// audit trail: which runs happened, where their data came from, and
// what the headline numbers were.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNoRuns is returned when the archive has no matching run.
var ErrNoRuns = errors.New("no runs recorded")

// RunRecord is one archived pipeline run. Money fields are stored as
// decimal strings so sqlite never rounds them.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	Provenance     string
	RecordCount    int
	RejectedCount  int
	LastMonth      string
	LastMonthTotal string
	MonthlyAverage string
	Error          string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordRun inserts one finished run into the archive.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, status, provenance,
			record_count, rejected_count, last_month,
			last_month_total, monthly_average, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Status, run.Provenance,
		run.RecordCount, run.RejectedCount, run.LastMonth,
		run.LastMonthTotal, run.MonthlyAverage, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// LastSuccessfulRun returns the most recently started succeeded run.
func (r *SQLiteRepository) LastSuccessfulRun(ctx context.Context) (RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, provenance,
		       record_count, rejected_count, last_month,
		       last_month_total, monthly_average, error
		FROM runs
		WHERE status = ?
		ORDER BY started_at DESC
		LIMIT 1`, StatusSucceeded)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNoRuns
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("query last successful run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, provenance,
		       record_count, rejected_count, last_month,
		       last_month_total, monthly_average, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var run RunRecord
	err := s.Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Provenance,
		&run.RecordCount, &run.RejectedCount, &run.LastMonth,
		&run.LastMonthTotal, &run.MonthlyAverage, &run.Error,
	)
	return run, err
}
