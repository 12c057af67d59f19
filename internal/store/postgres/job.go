package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

const jobColumns = "id, company_id, title, description, requirements, duration, budget, status, application_count, created_at, updated_at"

// CreateJob inserts a new job posting.
func (s *Store) CreateJob(ctx context.Context, tx store.DBTransaction, job *store.Job) error {
	query := `
		INSERT INTO jobs (id, company_id, title, description, requirements, duration, budget, status, application_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		job.ID,
		job.CompanyID,
		job.Title,
		job.Description,
		job.Requirements,
		job.Duration,
		job.Budget,
		job.Status,
		job.ApplicationCount,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE id = $1"

	var j store.Job
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Requirements,
		&j.Duration, &j.Budget, &j.Status, &j.ApplicationCount,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// ListOpenJobs returns open postings, newest first.
func (s *Store) ListOpenJobs(ctx context.Context, limit, offset int) ([]store.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + jobColumns + " FROM jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"

	rows, err := s.db.QueryContext(ctx, query, store.JobStatusOpen, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (s *Store) ListJobsByCompany(ctx context.Context, companyID uuid.UUID) ([]store.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE company_id = $1 ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// UpdateJob rewrites the mutable posting fields.
func (s *Store) UpdateJob(ctx context.Context, tx store.DBTransaction, job *store.Job) error {
	query := `
		UPDATE jobs
		SET title = $1, description = $2, requirements = $3, duration = $4, budget = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		job.Title,
		job.Description,
		job.Requirements,
		job.Duration,
		job.Budget,
		job.Status,
		time.Now().UTC(),
		job.ID,
	)
	return err
}

func (s *Store) SetJobStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.JobStatus) error {
	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx,
		"UPDATE jobs SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	return err
}

func (s *Store) IncrementApplicationCount(ctx context.Context, tx store.DBTransaction, id uuid.UUID) error {
	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx,
		"UPDATE jobs SET application_count = application_count + 1, updated_at = $1 WHERE id = $2",
		time.Now().UTC(), id,
	)
	return err
}

func scanJobs(rows *sql.Rows) ([]store.Job, error) {
	var jobs []store.Job
	for rows.Next() {
		var j store.Job
		if err := rows.Scan(
			&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Requirements,
			&j.Duration, &j.Budget, &j.Status, &j.ApplicationCount,
			&j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
