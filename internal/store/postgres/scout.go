package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

const scoutColumns = "id, company_id, engineer_id, job_id, message, status, created_at, updated_at"

func (s *Store) CreateScout(ctx context.Context, scout *store.Scout) error {
	query := `
		INSERT INTO scouts (id, company_id, engineer_id, job_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		scout.ID,
		scout.CompanyID,
		scout.EngineerID,
		scout.JobID,
		scout.Message,
		scout.Status,
		scout.CreatedAt,
		scout.UpdatedAt,
	)
	return err
}

func (s *Store) GetScoutByID(ctx context.Context, id uuid.UUID) (*store.Scout, error) {
	query := "SELECT " + scoutColumns + " FROM scouts WHERE id = $1"

	var sc store.Scout
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sc.ID, &sc.CompanyID, &sc.EngineerID, &sc.JobID, &sc.Message, &sc.Status, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

func (s *Store) ListScoutsByEngineer(ctx context.Context, engineerID uuid.UUID) ([]store.Scout, error) {
	query := "SELECT " + scoutColumns + " FROM scouts WHERE engineer_id = $1 ORDER BY created_at DESC"
	return s.queryScouts(ctx, query, engineerID)
}

func (s *Store) ListScoutsByCompany(ctx context.Context, companyID uuid.UUID) ([]store.Scout, error) {
	query := "SELECT " + scoutColumns + " FROM scouts WHERE company_id = $1 ORDER BY created_at DESC"
	return s.queryScouts(ctx, query, companyID)
}

func (s *Store) SetScoutStatus(ctx context.Context, id uuid.UUID, status store.ScoutStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE scouts SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	return err
}

func (s *Store) queryScouts(ctx context.Context, query string, args ...interface{}) ([]store.Scout, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scouts []store.Scout
	for rows.Next() {
		var sc store.Scout
		if err := rows.Scan(&sc.ID, &sc.CompanyID, &sc.EngineerID, &sc.JobID, &sc.Message, &sc.Status, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		scouts = append(scouts, sc)
	}
	return scouts, rows.Err()
}
