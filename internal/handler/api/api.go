// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API for the translation queue.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/queue"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translate"
	"github.com/olegiv/ocms-translate/internal/version"
)

// QueueAdmin is the queue surface the API drives.
type QueueAdmin interface {
	GetQueueStats(ctx context.Context) (model.QueueStats, error)
	GetActiveJobs(ctx context.Context, limit int) ([]model.ActiveJob, error)
	GetJob(ctx context.Context, id string) (model.TranslationJob, error)
	AddJobs(ctx context.Context, blogIDs []int64, lang string, priority int) (queue.EnqueueResult, error)
	StartProcessing() bool
	RetryFailed(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context, days int) (int64, error)
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	queries *store.Queries
	admin   QueueAdmin
	version version.Info
	logger  *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, admin QueueAdmin, info version.Info, logger *slog.Logger) *Handler {
	return &Handler{
		queries: store.New(db),
		admin:   admin,
		version: info,
		logger:  logger.With("category", model.EventCategoryAPI),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteAccepted writes a 202 Accepted JSON response.
func WriteAccepted(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusAccepted, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteUnsupportedLanguage writes a 422 Unprocessable Entity response.
func WriteUnsupportedLanguage(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, "unsupported_language", message, nil)
}

// writeQueueError maps queue and gateway errors to API responses. Errors
// with no mapping are logged and reported as 500.
func (h *Handler) writeQueueError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, translate.ErrUnsupportedLanguage):
		WriteUnsupportedLanguage(w, err.Error())
	case errors.Is(err, queue.ErrJobNotFound), errors.Is(err, queue.ErrBlogNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, queue.ErrNotOriginal), errors.Is(err, queue.ErrNoBlogs):
		WriteBadRequest(w, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
	default:
		h.logger.Error("api request failed",
			"action", action,
			"path", r.URL.Path,
			"error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string       `json:"status"`
	API     string       `json:"api"`
	Version version.Info `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		API:     "v1",
		Version: h.version,
	})
}
