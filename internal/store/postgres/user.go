package postgres

import (
	"context"
	"database/sql"
	"errors"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (id, email, display_name, user_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.UserType,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	query := "SELECT id, email, display_name, user_type, created_at, updated_at FROM users WHERE id = $1"

	var u store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.UserType,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := "SELECT id, email, display_name, user_type, created_at, updated_at FROM users WHERE email = $1"

	var u store.User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.UserType,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
