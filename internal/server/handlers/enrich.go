package handlers

import (
	"context"
	"sync"

	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// unknownPlaceholder is what a failed presentation join degrades to.
// Joins are best-effort decoration, not integrity-critical.
const unknownPlaceholder = "Unknown"

func contractResponse(c *store.Contract) api.ContractResponse {
	resp := api.ContractResponse{
		ID:                 c.ID.String(),
		ApplicationID:      c.ApplicationID.String(),
		JobID:              c.JobID.String(),
		EngineerID:         c.EngineerID.String(),
		CompanyID:          c.CompanyID.String(),
		Status:             string(c.Status),
		InitiatedBy:        string(c.InitiatedBy),
		ContractAmount:     c.ContractAmount,
		FeePercentage:      c.FeePercentage,
		FeeAmount:          c.FeeAmount,
		ApprovedByEngineer: c.ApprovedByEngineer,
		ApprovedByCompany:  c.ApprovedByCompany,
		PaidAt:             c.PaidAt,
		RefundedAt:         c.RefundedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}

	if c.PaymentID != nil {
		resp.PaymentID = *c.PaymentID
	}
	if c.PaymentMethod != nil {
		resp.PaymentMethod = *c.PaymentMethod
	}
	if c.RefundID != nil {
		resp.RefundID = *c.RefundID
	}
	if c.RefundReason != nil {
		resp.RefundReason = *c.RefundReason
	}

	return resp
}

// enrichContract decorates a contract response with the job title and the
// other party's display name as seen by the viewer. The two lookups run
// concurrently; each failure degrades to a placeholder instead of failing
// the response.
func (h *Handlers) enrichContract(ctx context.Context, c *store.Contract, viewerType store.UserType) api.ContractResponse {
	resp := contractResponse(c)

	otherPartyID := c.EngineerID
	if viewerType == store.UserTypeEngineer {
		otherPartyID = c.CompanyID
	}

	var wg sync.WaitGroup
	jobTitle := unknownPlaceholder
	otherName := unknownPlaceholder

	wg.Add(2)
	go func() {
		defer wg.Done()
		if job, err := h.store.GetJobByID(ctx, c.JobID); err == nil {
			jobTitle = job.Title
		}
	}()
	go func() {
		defer wg.Done()
		if user, err := h.store.GetUserByID(ctx, otherPartyID); err == nil {
			otherName = user.DisplayName
		}
	}()
	wg.Wait()

	resp.JobTitle = jobTitle
	resp.OtherPartyName = otherName
	return resp
}

// displayName is a single best-effort name lookup.
func (h *Handlers) displayName(ctx context.Context, userID uuid.UUID) string {
	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		return unknownPlaceholder
	}
	return user.DisplayName
}

func jobResponse(j *store.Job) api.JobResponse {
	return api.JobResponse{
		ID:               j.ID.String(),
		CompanyID:        j.CompanyID.String(),
		Title:            j.Title,
		Description:      j.Description,
		Requirements:     j.Requirements,
		Duration:         j.Duration,
		Budget:           j.Budget,
		Status:           string(j.Status),
		ApplicationCount: j.ApplicationCount,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func applicationResponse(a *store.Application) api.ApplicationResponse {
	return api.ApplicationResponse{
		ID:         a.ID.String(),
		JobID:      a.JobID.String(),
		EngineerID: a.EngineerID.String(),
		Message:    a.Message,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func scoutResponse(s *store.Scout) api.ScoutResponse {
	resp := api.ScoutResponse{
		ID:         s.ID.String(),
		CompanyID:  s.CompanyID.String(),
		EngineerID: s.EngineerID.String(),
		Message:    s.Message,
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
	}
	if s.JobID != nil {
		resp.JobID = s.JobID.String()
	}
	return resp
}

func conversationResponse(c *store.Conversation) api.ConversationResponse {
	resp := api.ConversationResponse{
		ID:            c.ID.String(),
		EngineerID:    c.EngineerID.String(),
		CompanyID:     c.CompanyID.String(),
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
	if c.JobID != nil {
		resp.JobID = c.JobID.String()
	}
	return resp
}

func notificationResponse(n *store.Notification) api.NotificationResponse {
	return api.NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func messageResponse(m *store.Message) api.MessageResponse {
	return api.MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}
