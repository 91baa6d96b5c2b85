package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/showmover/internal/domain"
)

const jobColumns = `id, show_id, source_path, destination_path, status, progress_bytes, total_bytes,
	speed_bytes_per_sec, eta_seconds, error_message, created_at, updated_at`

// MoveCompletion carries everything the finalize step commits at once.
type MoveCompletion struct {
	JobID           string
	ShowID          string
	DestinationPath string
	Location        domain.Location
	ProgressBytes   int64
}

func (db *DB) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `INSERT INTO jobs (id, show_id, source_path, destination_path, status, progress_bytes,
			total_bytes, speed_bytes_per_sec, eta_seconds, error_message, created_at, updated_at)
		VALUES (:id, :show_id, :source_path, :destination_path, :status, :progress_bytes,
			:total_bytes, :speed_bytes_per_sec, :eta_seconds, :error_message, :created_at, :updated_at)`

	_, err := db.NamedExecContext(ctx, query, job)
	return err
}

func (db *DB) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	job := &domain.Job{}
	err := db.GetContext(ctx, job, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (db *DB) ListJobs(ctx context.Context, limit, offset int) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	var jobs []*domain.Job
	err := db.SelectContext(ctx, &jobs, query, limit, offset)
	return jobs, err
}

// ListActiveJobs returns queued and running jobs, oldest first.
func (db *DB) ListActiveJobs(ctx context.Context) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status IN ('queued', 'running') ORDER BY created_at ASC, rowid ASC`

	var jobs []*domain.Job
	err := db.SelectContext(ctx, &jobs, query)
	return jobs, err
}

// HasActiveJobs reports whether any job is queued or running.
func (db *DB) HasActiveJobs(ctx context.Context) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM jobs WHERE status IN ('queued', 'running')`)
	return count > 0, err
}

// NextEligibleJob returns the job the mover should work on: a running job
// left over from a previous process first, otherwise the oldest queued job.
func (db *DB) NextEligibleJob(ctx context.Context) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE status IN ('queued', 'running')
		ORDER BY CASE status WHEN 'running' THEN 0 ELSE 1 END, created_at ASC, rowid ASC
		LIMIT 1`

	job := &domain.Job{}
	err := db.GetContext(ctx, job, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkJobRunning claims a job and clears any stale error.
func (db *DB) MarkJobRunning(ctx context.Context, id string) error {
	query := `UPDATE jobs SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, domain.JobStatusRunning, time.Now().UTC(), id)
	return err
}

func (db *DB) UpdateJobProgress(ctx context.Context, id string, progress, speed, eta int64) error {
	query := `UPDATE jobs SET progress_bytes = ?, speed_bytes_per_sec = ?, eta_seconds = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, progress, speed, eta, time.Now().UTC(), id)
	return err
}

// FailJob records a terminal failure. Progress is left as it was.
func (db *DB) FailJob(ctx context.Context, id string, errorMsg string) error {
	query := `UPDATE jobs SET status = ?, error_message = ?, speed_bytes_per_sec = 0, eta_seconds = 0, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, domain.JobStatusFailed, errorMsg, time.Now().UTC(), id)
	return err
}

// CompleteMove repoints the show at its new path and marks the job successful
// in one transaction.
func (db *DB) CompleteMove(ctx context.Context, c MoveCompletion) error {
	return db.RunInTx(ctx, func(tx *DB) error {
		now := time.Now().UTC()

		res, err := tx.ExecContext(ctx, `UPDATE shows SET path = ?, location = ? WHERE id = ?`,
			c.DestinationPath, c.Location, c.ShowID)
		if err != nil {
			return fmt.Errorf("update show: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("update show %s: %w", c.ShowID, domain.ErrShowNotFound)
		}

		res, err = tx.ExecContext(ctx, `UPDATE jobs SET status = ?, progress_bytes = ?, speed_bytes_per_sec = 0,
				eta_seconds = 0, error_message = NULL, updated_at = ? WHERE id = ?`,
			domain.JobStatusSuccess, c.ProgressBytes, now, c.JobID)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("update job %s: %w", c.JobID, domain.ErrJobNotFound)
		}
		return nil
	})
}

// GetJobStats counts jobs per status and sums the bytes of successful moves.
func (db *DB) GetJobStats(ctx context.Context) (*domain.JobStats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'queued' THEN 1 ELSE 0 END), 0) as queued,
		COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0) as running,
		COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as succeeded,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed,
		COALESCE(SUM(CASE WHEN status = 'success' THEN total_bytes ELSE 0 END), 0) as bytes_moved
		FROM jobs`

	stats := &domain.JobStats{}
	if err := db.GetContext(ctx, stats, query); err != nil {
		return nil, err
	}
	return stats, nil
}
