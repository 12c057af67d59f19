// Package notify creates user-facing notifications. Creation is
// best-effort: a notification that cannot be persisted is logged and
// dropped, never failing the operation that produced it.
package notify

import (
	"context"
	"log/slog"
	"time"

	"talentbridge/internal/store"

	"github.com/google/uuid"
)

// Notification types emitted by the handlers.
const (
	TypeApplication = "application"
	TypeScout       = "scout"
	TypeContract    = "contract"
	TypePayment     = "payment"
	TypeRefund      = "refund"
	TypeMessage     = "message"
)

// Sink writes notifications without ever failing the caller.
type Sink struct {
	store  store.NotificationStore
	logger *slog.Logger
}

// NewSink creates a notification sink.
func NewSink(s store.NotificationStore, logger *slog.Logger) *Sink {
	return &Sink{store: s, logger: logger}
}

// Notify persists one notification. Errors are logged and swallowed.
func (s *Sink) Notify(ctx context.Context, userID uuid.UUID, notifType, title, message, link, relatedID string) {
	n := &store.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Link:      link,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			"user_id", userID, "type", notifType, "error", err)
	}
}
