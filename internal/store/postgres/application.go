package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

const applicationColumns = "id, job_id, engineer_id, message, status, created_at, updated_at"

func (s *Store) CreateApplication(ctx context.Context, tx store.DBTransaction, app *store.Application) error {
	query := `
		INSERT INTO applications (id, job_id, engineer_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		app.ID,
		app.JobID,
		app.EngineerID,
		app.Message,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	)
	return err
}

func (s *Store) GetApplicationByID(ctx context.Context, id uuid.UUID) (*store.Application, error) {
	query := "SELECT " + applicationColumns + " FROM applications WHERE id = $1"

	var a store.Application
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.JobID, &a.EngineerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (s *Store) ListApplicationsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]store.Application, error) {
	query := "SELECT " + applicationColumns + " FROM applications WHERE engineer_id = $1 ORDER BY created_at DESC"
	return s.queryApplications(ctx, query, engineerID)
}

func (s *Store) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]store.Application, error) {
	query := "SELECT " + applicationColumns + " FROM applications WHERE job_id = $1 ORDER BY created_at DESC"
	return s.queryApplications(ctx, query, jobID)
}

func (s *Store) SetApplicationStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.ApplicationStatus) error {
	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx,
		"UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	return err
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...interface{}) ([]store.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []store.Application
	for rows.Next() {
		var a store.Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.EngineerID, &a.Message, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
