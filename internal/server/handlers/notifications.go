package handlers

import (
	"errors"
	"net/http"

	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// ListNotifications handles GET /notifications.
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := parsePagination(r, 50)

	notifications, err := h.store.ListNotificationsByUser(ctx, identity.UserID, limit)
	if err != nil {
		h.httpError(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	resp := make([]api.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		resp = append(resp, notificationResponse(&notifications[i]))
	}

	h.respondJson(w, http.StatusOK, resp)
}

// MarkNotificationRead handles PUT /notifications/{id}/read.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	err = h.store.MarkNotificationRead(ctx, notificationID, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
