// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/queue"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// MaxJobsPerRequest bounds blog_ids in one enqueue request.
const MaxJobsPerRequest = 500

// DefaultCleanupDays is the retention used when ?days is absent.
const DefaultCleanupDays = 30

// AddJobsRequest is the body of POST /translations/jobs.
type AddJobsRequest struct {
	BlogIDs        []int64 `json:"blog_ids"`
	TargetLanguage string  `json:"target_language"`
	Priority       int     `json:"priority"`
}

// ProcessResponse is returned by POST /translations/process.
type ProcessResponse struct {
	Started   bool `json:"started"`
	Signalled bool `json:"signalled"`
}

// RetryResponse is returned by POST /translations/retry.
type RetryResponse struct {
	Retried int64 `json:"retried"`
}

// CleanupResponse is returned by POST /translations/cleanup.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// AddJobs handles POST /api/v1/translations/jobs.
func (h *Handler) AddJobs(w http.ResponseWriter, r *http.Request) {
	var req AddJobsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	fieldErrors := make(map[string]string)
	if len(req.BlogIDs) == 0 {
		fieldErrors["blog_ids"] = "At least one blog ID is required"
	} else if len(req.BlogIDs) > MaxJobsPerRequest {
		fieldErrors["blog_ids"] = "At most " + strconv.Itoa(MaxJobsPerRequest) + " blog IDs per request"
	}
	for _, id := range req.BlogIDs {
		if id <= 0 {
			fieldErrors["blog_ids"] = "Blog IDs must be positive"
			break
		}
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		fieldErrors["target_language"] = "Target language is required"
	}
	if len(fieldErrors) > 0 {
		WriteBadRequest(w, "Invalid request", fieldErrors)
		return
	}

	result, err := h.admin.AddJobs(r.Context(), req.BlogIDs, req.TargetLanguage, req.Priority)
	if err != nil {
		h.writeQueueError(w, r, "enqueue translation jobs", err)
		return
	}

	WriteCreated(w, result)
}

// StartProcessing handles POST /api/v1/translations/process. It returns
// before the run finishes; completion is observed through Stats.
func (h *Handler) StartProcessing(w http.ResponseWriter, _ *http.Request) {
	signalled := h.admin.StartProcessing()
	WriteAccepted(w, ProcessResponse{Started: true, Signalled: signalled})
}

// Stats handles GET /api/v1/translations/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.GetQueueStats(r.Context())
	if err != nil {
		h.writeQueueError(w, r, "load queue stats", err)
		return
	}
	WriteSuccess(w, stats)
}

// ActiveJobs handles GET /api/v1/translations/jobs/active.
func (h *Handler) ActiveJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "Invalid limit", map[string]string{"limit": "Must be a positive integer"})
			return
		}
		limit = n
	}

	jobs, err := h.admin.GetActiveJobs(r.Context(), limit)
	if err != nil {
		h.writeQueueError(w, r, "list active jobs", err)
		return
	}
	if jobs == nil {
		jobs = []model.ActiveJob{}
	}
	WriteSuccess(w, jobs)
}

// GetJob handles GET /api/v1/translations/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteBadRequest(w, "Invalid job ID", nil)
		return
	}

	job, err := h.admin.GetJob(r.Context(), id)
	if err != nil {
		h.writeQueueError(w, r, "load job", err)
		return
	}
	WriteSuccess(w, job)
}

// RetryFailed handles POST /api/v1/translations/retry.
func (h *Handler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.RetryFailed(r.Context())
	if err != nil {
		h.writeQueueError(w, r, "retry failed jobs", err)
		return
	}
	WriteSuccess(w, RetryResponse{Retried: n})
}

// Cleanup handles POST /api/v1/translations/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	days := DefaultCleanupDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteBadRequest(w, "Invalid days", map[string]string{"days": "Must be a non-negative integer"})
			return
		}
		days = n
	}

	n, err := h.admin.Cleanup(r.Context(), days)
	if err != nil {
		h.writeQueueError(w, r, "clean up jobs", err)
		return
	}
	WriteSuccess(w, CleanupResponse{Deleted: n})
}

var _ QueueAdmin = (*queue.Admin)(nil)
