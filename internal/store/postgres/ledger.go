package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"talentbridge/internal/store"
)

// Ledger rows are garbage-collected 24h past the last relevant event.
// A lapsed row is equivalent to "allowed", so expiry is housekeeping only.
const ledgerRetention = 24 * time.Hour

func (s *Store) GetLedger(ctx context.Context, namespace, subjectKey string) (*store.AttemptLedger, error) {
	query := `
		SELECT namespace, subject_key, failed_attempts, last_failed_at, last_error, last_related_id, locked_until, expires_at
		FROM attempt_ledgers
		WHERE namespace = $1 AND subject_key = $2 AND expires_at > $3
	`

	var l store.AttemptLedger
	err := s.db.QueryRowContext(ctx, query, namespace, subjectKey, time.Now().UTC()).Scan(
		&l.Namespace,
		&l.SubjectKey,
		&l.FailedAttempts,
		&l.LastFailedAt,
		&l.LastError,
		&l.LastRelatedID,
		&l.LockedUntil,
		&l.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// UpsertFailure increments the failure counter atomically, creating the row
// if absent. The single statement avoids the read-increment race between
// near-simultaneous failures.
func (s *Store) UpsertFailure(ctx context.Context, namespace, subjectKey, lastError, relatedID string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO attempt_ledgers (namespace, subject_key, failed_attempts, last_failed_at, last_error, last_related_id, expires_at)
		VALUES ($1, $2, 1, $3, $4, $5, $6)
		ON CONFLICT (namespace, subject_key) DO UPDATE
		SET failed_attempts = attempt_ledgers.failed_attempts + 1,
			last_failed_at = EXCLUDED.last_failed_at,
			last_error = EXCLUDED.last_error,
			last_related_id = EXCLUDED.last_related_id,
			expires_at = EXCLUDED.expires_at
	`

	_, err := s.db.ExecContext(ctx, query, namespace, subjectKey, now, lastError, relatedID, now.Add(ledgerRetention))
	return err
}

func (s *Store) SetLockedUntil(ctx context.Context, namespace, subjectKey string, lockedUntil time.Time) error {
	query := `
		UPDATE attempt_ledgers
		SET locked_until = $1, expires_at = $2
		WHERE namespace = $3 AND subject_key = $4
	`

	_, err := s.db.ExecContext(ctx, query, lockedUntil, lockedUntil.Add(ledgerRetention), namespace, subjectKey)
	return err
}

func (s *Store) ClearLedger(ctx context.Context, namespace, subjectKey string) error {
	query := `
		UPDATE attempt_ledgers
		SET failed_attempts = 0, locked_until = NULL
		WHERE namespace = $1 AND subject_key = $2
	`

	_, err := s.db.ExecContext(ctx, query, namespace, subjectKey)
	return err
}
