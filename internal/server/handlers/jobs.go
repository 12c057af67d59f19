package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"talentbridge/internal/server/middleware"
	"talentbridge/internal/store"
	"talentbridge/pkg/api"

	"github.com/google/uuid"
)

// CreateJob handles POST /jobs.
// Companies post openings for engineers to apply against.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if identity.UserType != store.UserTypeCompany {
		h.httpError(w, "Only companies can post jobs", http.StatusForbidden)
		return
	}

	var req api.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.Description == "" {
		h.httpError(w, "Title and description are required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	job := &store.Job{
		ID:           uuid.New(),
		CompanyID:    identity.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Duration:     req.Duration,
		Budget:       req.Budget,
		Status:       store.JobStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateJob(ctx, nil, job); err != nil {
		h.httpError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, jobResponse(job))
}

// ListJobs handles GET /jobs.
// With ?mine=true a company sees its own postings (any status);
// otherwise open postings are returned.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		jobs []store.Job
		err  error
	)

	if r.URL.Query().Get("mine") == "true" && identity.UserType == store.UserTypeCompany {
		jobs, err = h.store.ListJobsByCompany(ctx, identity.UserID)
	} else {
		limit, offset := parsePagination(r, 50)
		jobs, err = h.store.ListOpenJobs(ctx, limit, offset)
	}
	if err != nil {
		h.httpError(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	resp := make([]api.JobResponse, 0, len(jobs))
	for i := range jobs {
		item := jobResponse(&jobs[i])
		item.CompanyName = h.displayName(ctx, jobs[i].CompanyID)
		resp = append(resp, item)
	}

	h.respondJson(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.store.GetJobByID(ctx, jobID)
	if err != nil {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return
	}

	resp := jobResponse(job)
	resp.CompanyName = h.displayName(ctx, job.CompanyID)
	h.respondJson(w, http.StatusOK, resp)
}

// UpdateJob handles PUT /jobs/{id}.
// Only the owning company may edit a posting.
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	var req api.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.store.GetJobByID(ctx, jobID)
	if err != nil {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.CompanyID != identity.UserID {
		h.httpError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Requirements != nil {
		job.Requirements = *req.Requirements
	}
	if req.Duration != nil {
		job.Duration = *req.Duration
	}
	if req.Budget != nil {
		job.Budget = req.Budget
	}
	if req.Status != nil {
		status := store.JobStatus(*req.Status)
		switch status {
		case store.JobStatusOpen, store.JobStatusFilled, store.JobStatusClosed:
			job.Status = status
		default:
			h.httpError(w, "Invalid job status", http.StatusBadRequest)
			return
		}
	}

	if err := h.store.UpdateJob(ctx, nil, job); err != nil {
		h.httpError(w, "Failed to update job", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, jobResponse(job))
}
