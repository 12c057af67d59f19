package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"talentbridge/internal/notify"
	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// CreateScout handles POST /scouts.
// Companies reach out to engineers directly, optionally tied to a posting.
func (h *Handlers) CreateScout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.UserType != store.UserTypeCompany {
		h.httpError(w, "Only companies can scout engineers", http.StatusForbidden)
		return
	}

	var req api.CreateScoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	engineerID, err := uuid.Parse(req.EngineerID)
	if err != nil {
		h.httpError(w, "Invalid engineer id", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		h.httpError(w, "Message is required", http.StatusBadRequest)
		return
	}

	engineer, err := h.store.GetUserByID(ctx, engineerID)
	if err != nil || engineer.UserType != store.UserTypeEngineer {
		h.httpError(w, "Engineer not found", http.StatusNotFound)
		return
	}

	var jobID *uuid.UUID
	if req.JobID != "" {
		parsed, err := uuid.Parse(req.JobID)
		if err != nil {
			h.httpError(w, "Invalid job id", http.StatusBadRequest)
			return
		}
		job, err := h.store.GetJobByID(ctx, parsed)
		if err != nil || job.CompanyID != identity.UserID {
			h.httpError(w, "Job not found", http.StatusNotFound)
			return
		}
		jobID = &parsed
	}

	now := time.Now().UTC()
	scout := &store.Scout{
		ID:         uuid.New(),
		CompanyID:  identity.UserID,
		EngineerID: engineerID,
		JobID:      jobID,
		Message:    req.Message,
		Status:     store.ScoutStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.store.CreateScout(ctx, scout); err != nil {
		h.httpError(w, "Failed to create scout", http.StatusInternalServerError)
		return
	}

	h.notifier.Notify(ctx, engineerID, notify.TypeScout,
		"You have been scouted",
		fmt.Sprintf("%s sent you a scout message.", h.displayName(ctx, identity.UserID)),
		"/scouts", scout.ID.String())

	h.respondJson(w, http.StatusOK, scoutResponse(scout))
}

// ListScouts handles GET /scouts.
// Engineers see scouts sent to them; companies see scouts they sent.
func (h *Handlers) ListScouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		scouts []store.Scout
		err    error
	)

	switch identity.UserType {
	case store.UserTypeEngineer:
		scouts, err = h.store.ListScoutsByEngineer(ctx, identity.UserID)
	case store.UserTypeCompany:
		scouts, err = h.store.ListScoutsByCompany(ctx, identity.UserID)
	default:
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to list scouts", http.StatusInternalServerError)
		return
	}

	resp := make([]api.ScoutResponse, 0, len(scouts))
	for i := range scouts {
		item := scoutResponse(&scouts[i])
		item.CompanyName = h.displayName(ctx, scouts[i].CompanyID)
		resp = append(resp, item)
	}

	h.respondJson(w, http.StatusOK, resp)
}

// UpdateScoutStatus handles PUT /scouts/{id}/status.
// The scouted engineer accepts or declines.
func (h *Handlers) UpdateScoutStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scoutID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid scout id", http.StatusBadRequest)
		return
	}

	var req api.UpdateScoutStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := store.ScoutStatus(req.Status)
	switch status {
	case store.ScoutStatusAccepted, store.ScoutStatusDeclined:
	default:
		h.httpError(w, "Invalid scout status", http.StatusBadRequest)
		return
	}

	scout, err := h.store.GetScoutByID(ctx, scoutID)
	if err != nil || scout.EngineerID != identity.UserID {
		h.httpError(w, "Scout not found", http.StatusNotFound)
		return
	}
	if scout.Status != store.ScoutStatusPending {
		h.httpError(w, "Scout has already been answered", http.StatusBadRequest)
		return
	}

	if err := h.store.SetScoutStatus(ctx, scoutID, status); err != nil {
		h.httpError(w, "Failed to update scout", http.StatusInternalServerError)
		return
	}

	if status == store.ScoutStatusAccepted {
		h.notifier.Notify(ctx, scout.CompanyID, notify.TypeScout,
			"Scout accepted",
			fmt.Sprintf("%s accepted your scout message.", h.displayName(ctx, identity.UserID)),
			"/scouts", scout.ID.String())
	}

	scout.Status = status
	h.respondJson(w, http.StatusOK, scoutResponse(scout))
}
