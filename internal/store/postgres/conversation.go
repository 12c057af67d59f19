package postgres

import (
	"context"
	"database/sql"
	"errors"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

const conversationColumns = "id, engineer_id, company_id, job_id, last_message, last_message_at, created_at"

func (s *Store) CreateConversation(ctx context.Context, c *store.Conversation) error {
	query := `
		INSERT INTO conversations (id, engineer_id, company_id, job_id, last_message, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.EngineerID,
		c.CompanyID,
		c.JobID,
		c.LastMessage,
		c.LastMessageAt,
		c.CreatedAt,
	)
	return err
}

func (s *Store) GetConversationByID(ctx context.Context, id uuid.UUID) (*store.Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE id = $1"

	var c store.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.EngineerID, &c.CompanyID, &c.JobID, &c.LastMessage, &c.LastMessageAt, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]store.Conversation, error) {
	query := "SELECT " + conversationColumns + " FROM conversations WHERE engineer_id = $1 OR company_id = $1 ORDER BY last_message_at DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []store.Conversation
	for rows.Next() {
		var c store.Conversation
		if err := rows.Scan(&c.ID, &c.EngineerID, &c.CompanyID, &c.JobID, &c.LastMessage, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// AddMessage appends a message and refreshes the thread summary in one
// transaction so the conversation list stays consistent with its messages.
func (s *Store) AddMessage(ctx context.Context, msg *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, sender_id, body, created_at) VALUES ($1, $2, $3, $4, $5)",
		msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE conversations SET last_message = $1, last_message_at = $2 WHERE id = $3",
		msg.Body, msg.CreatedAt, msg.ConversationID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, conversation_id, sender_id, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
