package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"talentbridge/internal/notify"
	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// StartConversation handles POST /conversations.
// Either side opens a thread with a user on the other side of the marketplace.
func (h *Handlers) StartConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		h.httpError(w, "Invalid recipient id", http.StatusBadRequest)
		return
	}

	recipient, err := h.store.GetUserByID(ctx, recipientID)
	if err != nil {
		h.httpError(w, "Recipient not found", http.StatusNotFound)
		return
	}
	if recipient.UserType == identity.UserType {
		h.httpError(w, "Conversations connect an engineer with a company", http.StatusBadRequest)
		return
	}

	var jobID *uuid.UUID
	if req.JobID != "" {
		parsed, err := uuid.Parse(req.JobID)
		if err != nil {
			h.httpError(w, "Invalid job id", http.StatusBadRequest)
			return
		}
		jobID = &parsed
	}

	conversation := &store.Conversation{
		ID:        uuid.New(),
		JobID:     jobID,
		CreatedAt: time.Now().UTC(),
	}
	if identity.UserType == store.UserTypeEngineer {
		conversation.EngineerID = identity.UserID
		conversation.CompanyID = recipientID
	} else {
		conversation.CompanyID = identity.UserID
		conversation.EngineerID = recipientID
	}

	if err := h.store.CreateConversation(ctx, conversation); err != nil {
		h.httpError(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, conversationResponse(conversation))
}

// ListConversations handles GET /conversations.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversations, err := h.store.ListConversationsByUser(ctx, identity.UserID)
	if err != nil {
		h.httpError(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	resp := make([]api.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		resp = append(resp, conversationResponse(&conversations[i]))
	}

	h.respondJson(w, http.StatusOK, resp)
}

// SendMessage handles POST /conversations/{id}/messages.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Body == "" {
		h.httpError(w, "Message body is required", http.StatusBadRequest)
		return
	}

	conversation, err := h.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		h.httpError(w, "Conversation not found", http.StatusNotFound)
		return
	}
	if conversation.EngineerID != identity.UserID && conversation.CompanyID != identity.UserID {
		// 404 so outsiders cannot probe thread ids.
		h.httpError(w, "Conversation not found", http.StatusNotFound)
		return
	}

	message := &store.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       identity.UserID,
		Body:           req.Body,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.store.AddMessage(ctx, message); err != nil {
		h.httpError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	recipientID := conversation.EngineerID
	if identity.UserID == conversation.EngineerID {
		recipientID = conversation.CompanyID
	}
	h.notifier.Notify(ctx, recipientID, notify.TypeMessage,
		"New message",
		"You have a new message from "+h.displayName(ctx, identity.UserID)+".",
		"/conversations/"+conversationID.String(), message.ID.String())

	h.respondJson(w, http.StatusOK, messageResponse(message))
}

// ListMessages handles GET /conversations/{id}/messages.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	conversation, err := h.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		h.httpError(w, "Conversation not found", http.StatusNotFound)
		return
	}
	if conversation.EngineerID != identity.UserID && conversation.CompanyID != identity.UserID {
		h.httpError(w, "Conversation not found", http.StatusNotFound)
		return
	}

	limit, _ := parsePagination(r, 100)

	messages, err := h.store.ListMessages(ctx, conversationID, limit)
	if err != nil {
		h.httpError(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}

	resp := make([]api.MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, messageResponse(&messages[i]))
	}

	h.respondJson(w, http.StatusOK, resp)
}
