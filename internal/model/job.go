// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// JobStatus is the lifecycle state of a translation job.
type JobStatus string

// Job statuses
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// IsOpen reports whether a job in this status still occupies its
// (blog, language) pair.
func (s JobStatus) IsOpen() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// TranslationJob is a persisted request to translate one blog into one language.
type TranslationJob struct {
	ID             string     `json:"id"`
	SourceBlogID   int64      `json:"source_blog_id"`
	TargetLanguage string     `json:"target_language"`
	Status         JobStatus  `json:"status"`
	Priority       int        `json:"priority"`
	RetryCount     int        `json:"retry_count"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ActiveJob is a pending or processing job with a snapshot of its source blog.
type ActiveJob struct {
	TranslationJob
	BlogTitle    string `json:"blog_title"`
	CategoryName string `json:"category_name,omitempty"`
}

// QueueStats holds job counts per status.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total"`
}
