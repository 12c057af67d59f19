package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"talentbridge/internal/logger"
	"talentbridge/internal/notify"
	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// Apply handles POST /jobs/{id}/applications.
// Engineers apply to open postings.
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.UserType != store.UserTypeEngineer {
		h.httpError(w, "Only engineers can apply to jobs", http.StatusForbidden)
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	var req api.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.store.GetJobByID(ctx, jobID)
	if err != nil {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.Status != store.JobStatusOpen {
		h.httpError(w, "Job is not open for applications", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	application := &store.Application{
		ID:         uuid.New(),
		JobID:      jobID,
		EngineerID: identity.UserID,
		Message:    req.Message,
		Status:     store.ApplicationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if err := h.store.CreateApplication(ctx, tx, application); err != nil {
		h.httpError(w, "Failed to create application", http.StatusInternalServerError)
		return
	}

	if err := h.store.IncrementApplicationCount(ctx, tx, jobID); err != nil {
		h.httpError(w, "Failed to create application", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		h.httpError(w, "Failed to commit transaction", http.StatusInternalServerError)
		return
	}

	log.Info("application created", "application_id", application.ID, "job_id", jobID)

	h.notifier.Notify(ctx, job.CompanyID, notify.TypeApplication,
		"New application",
		fmt.Sprintf("An engineer applied to %q.", job.Title),
		"/jobs/"+jobID.String()+"/applications", application.ID.String())

	h.respondJson(w, http.StatusOK, applicationResponse(application))
}

// ListApplications handles GET /applications.
// Engineers see their own applications; companies see applications to one
// of their jobs via ?job_id=.
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		applications []store.Application
		err          error
	)

	switch identity.UserType {
	case store.UserTypeEngineer:
		applications, err = h.store.ListApplicationsByEngineer(ctx, identity.UserID)
	case store.UserTypeCompany:
		jobID, parseErr := uuid.Parse(r.URL.Query().Get("job_id"))
		if parseErr != nil {
			h.httpError(w, "job_id is required", http.StatusBadRequest)
			return
		}
		job, jobErr := h.store.GetJobByID(ctx, jobID)
		if jobErr != nil || job.CompanyID != identity.UserID {
			h.httpError(w, "Job not found", http.StatusNotFound)
			return
		}
		applications, err = h.store.ListApplicationsByJob(ctx, jobID)
	default:
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		h.httpError(w, "Failed to list applications", http.StatusInternalServerError)
		return
	}

	resp := make([]api.ApplicationResponse, 0, len(applications))
	for i := range applications {
		item := applicationResponse(&applications[i])
		if job, err := h.store.GetJobByID(ctx, applications[i].JobID); err == nil {
			item.JobTitle = job.Title
		} else {
			item.JobTitle = unknownPlaceholder
		}
		item.EngineerName = h.displayName(ctx, applications[i].EngineerID)
		resp = append(resp, item)
	}

	h.respondJson(w, http.StatusOK, resp)
}

// UpdateApplicationStatus handles PUT /applications/{id}/status.
// The job's company moves an application between review states.
func (h *Handlers) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	applicationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	var req api.UpdateApplicationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := store.ApplicationStatus(req.Status)
	switch status {
	case store.ApplicationStatusInterested, store.ApplicationStatusPassed:
	default:
		h.httpError(w, "Invalid application status", http.StatusBadRequest)
		return
	}

	application, err := h.store.GetApplicationByID(ctx, applicationID)
	if err != nil {
		h.httpError(w, "Application not found", http.StatusNotFound)
		return
	}

	job, err := h.store.GetJobByID(ctx, application.JobID)
	if err != nil || job.CompanyID != identity.UserID {
		h.httpError(w, "Application not found", http.StatusNotFound)
		return
	}

	if err := h.store.SetApplicationStatus(ctx, nil, applicationID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Application not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to update application", http.StatusInternalServerError)
		return
	}

	if status == store.ApplicationStatusInterested {
		h.notifier.Notify(ctx, application.EngineerID, notify.TypeApplication,
			"Application update",
			fmt.Sprintf("The company is interested in your application to %q.", job.Title),
			"/applications", applicationID.String())
	}

	application.Status = status
	h.respondJson(w, http.StatusOK, applicationResponse(application))
}
