// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const jobColumns = `seq, id, source_blog_id, target_language, status, priority, retry_count,
	error_message, created_at, processed_at, completed_at`

func scanJob(row interface{ Scan(...any) error }) (TranslationJob, error) {
	var i TranslationJob
	err := row.Scan(
		&i.Seq,
		&i.ID,
		&i.SourceBlogID,
		&i.TargetLanguage,
		&i.Status,
		&i.Priority,
		&i.RetryCount,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.ProcessedAt,
		&i.CompletedAt,
	)
	return i, err
}

func (q *Queries) listJobs(ctx context.Context, query string, args ...any) ([]TranslationJob, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TranslationJob
	for rows.Next() {
		i, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTranslationJob = `-- name: CreateTranslationJob :one
INSERT INTO translation_jobs (id, source_blog_id, target_language, status, priority, retry_count, created_at)
VALUES (?, ?, ?, 'pending', ?, 0, ?)
RETURNING ` + jobColumns

type CreateTranslationJobParams struct {
	ID             string
	SourceBlogID   int64
	TargetLanguage string
	Priority       int64
	CreatedAt      time.Time
}

func (q *Queries) CreateTranslationJob(ctx context.Context, arg CreateTranslationJobParams) (TranslationJob, error) {
	row := q.db.QueryRowContext(ctx, createTranslationJob,
		arg.ID,
		arg.SourceBlogID,
		arg.TargetLanguage,
		arg.Priority,
		arg.CreatedAt,
	)
	return scanJob(row)
}

const getTranslationJob = `-- name: GetTranslationJob :one
SELECT ` + jobColumns + ` FROM translation_jobs WHERE id = ?`

func (q *Queries) GetTranslationJob(ctx context.Context, id string) (TranslationJob, error) {
	return scanJob(q.db.QueryRowContext(ctx, getTranslationJob, id))
}

const listDueTranslationJobs = `-- name: ListDueTranslationJobs :many
SELECT ` + jobColumns + ` FROM translation_jobs
WHERE status = 'pending' AND retry_count < ?
ORDER BY priority DESC, created_at ASC, seq ASC
LIMIT ?`

type ListDueTranslationJobsParams struct {
	MaxRetries int64
	Limit      int64
}

func (q *Queries) ListDueTranslationJobs(ctx context.Context, arg ListDueTranslationJobsParams) ([]TranslationJob, error) {
	return q.listJobs(ctx, listDueTranslationJobs, arg.MaxRetries, arg.Limit)
}

const claimTranslationJob = `-- name: ClaimTranslationJob :execrows
UPDATE translation_jobs
SET status = 'processing', processed_at = ?
WHERE id = ? AND status = 'pending'`

type ClaimTranslationJobParams struct {
	ProcessedAt sql.NullTime
	ID          string
}

// ClaimTranslationJob moves a job from pending to processing. It affects no
// rows when the job is missing or no longer pending.
func (q *Queries) ClaimTranslationJob(ctx context.Context, arg ClaimTranslationJobParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, claimTranslationJob, arg.ProcessedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completeTranslationJob = `-- name: CompleteTranslationJob :execrows
UPDATE translation_jobs
SET status = 'completed', completed_at = ?, error_message = NULL
WHERE id = ?`

type CompleteTranslationJobParams struct {
	CompletedAt sql.NullTime
	ID          string
}

func (q *Queries) CompleteTranslationJob(ctx context.Context, arg CompleteTranslationJobParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeTranslationJob, arg.CompletedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const failTranslationJob = `-- name: FailTranslationJob :execrows
UPDATE translation_jobs
SET status = 'failed', error_message = ?, retry_count = retry_count + 1, completed_at = NULL
WHERE id = ?`

type FailTranslationJobParams struct {
	ErrorMessage sql.NullString
	ID           string
}

func (q *Queries) FailTranslationJob(ctx context.Context, arg FailTranslationJobParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, failTranslationJob, arg.ErrorMessage, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const releaseTranslationJob = `-- name: ReleaseTranslationJob :execrows
UPDATE translation_jobs
SET status = 'pending', processed_at = NULL
WHERE id = ? AND status = 'processing'`

func (q *Queries) ReleaseTranslationJob(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseTranslationJob, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTranslationJobsByStatus = `-- name: CountTranslationJobsByStatus :many
SELECT status, COUNT(*) FROM translation_jobs GROUP BY status`

type CountTranslationJobsByStatusRow struct {
	Status string
	Count  int64
}

func (q *Queries) CountTranslationJobsByStatus(ctx context.Context) ([]CountTranslationJobsByStatusRow, error) {
	rows, err := q.db.QueryContext(ctx, countTranslationJobsByStatus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CountTranslationJobsByStatusRow
	for rows.Next() {
		var i CountTranslationJobsByStatusRow
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const retryFailedTranslationJobs = `-- name: RetryFailedTranslationJobs :execrows
UPDATE translation_jobs
SET status = 'pending', error_message = NULL, processed_at = NULL, completed_at = NULL
WHERE status = 'failed' AND retry_count < ?`

func (q *Queries) RetryFailedTranslationJobs(ctx context.Context, maxRetries int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, retryFailedTranslationJobs, maxRetries)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCompletedTranslationJobs = `-- name: DeleteCompletedTranslationJobs :execrows
DELETE FROM translation_jobs
WHERE status = 'completed' AND completed_at < ?`

func (q *Queries) DeleteCompletedTranslationJobs(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCompletedTranslationJobs, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const failStaleTranslationJobs = `-- name: FailStaleTranslationJobs :execrows
UPDATE translation_jobs
SET status = 'failed', error_message = ?, retry_count = retry_count + 1
WHERE status = 'processing' AND processed_at < ?`

type FailStaleTranslationJobsParams struct {
	ErrorMessage sql.NullString
	Before       time.Time
}

func (q *Queries) FailStaleTranslationJobs(ctx context.Context, arg FailStaleTranslationJobsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, failStaleTranslationJobs, arg.ErrorMessage, arg.Before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countOpenTranslationJobs = `-- name: CountOpenTranslationJobs :one
SELECT COUNT(*) FROM translation_jobs
WHERE source_blog_id = ? AND target_language = ?
	AND (status IN ('pending', 'processing') OR (status = 'failed' AND retry_count < ?))`

type CountOpenTranslationJobsParams struct {
	SourceBlogID   int64
	TargetLanguage string
	MaxRetries     int64
}

func (q *Queries) CountOpenTranslationJobs(ctx context.Context, arg CountOpenTranslationJobsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countOpenTranslationJobs, arg.SourceBlogID, arg.TargetLanguage, arg.MaxRetries).Scan(&count)
	return count, err
}

const listActiveTranslationJobs = `-- name: ListActiveTranslationJobs :many
SELECT j.seq, j.id, j.source_blog_id, j.target_language, j.status, j.priority, j.retry_count,
	j.error_message, j.created_at, j.processed_at, j.completed_at,
	b.title, c.name
FROM translation_jobs j
JOIN blogs b ON b.id = j.source_blog_id
LEFT JOIN categories c ON c.id = b.category_id
WHERE j.status IN ('pending', 'processing')
ORDER BY j.priority DESC, j.created_at ASC, j.seq ASC
LIMIT ?`

type ListActiveTranslationJobsRow struct {
	TranslationJob
	BlogTitle    string
	CategoryName sql.NullString
}

func (q *Queries) ListActiveTranslationJobs(ctx context.Context, limit int64) ([]ListActiveTranslationJobsRow, error) {
	rows, err := q.db.QueryContext(ctx, listActiveTranslationJobs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ListActiveTranslationJobsRow
	for rows.Next() {
		var i ListActiveTranslationJobsRow
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.SourceBlogID,
			&i.TargetLanguage,
			&i.Status,
			&i.Priority,
			&i.RetryCount,
			&i.ErrorMessage,
			&i.CreatedAt,
			&i.ProcessedAt,
			&i.CompletedAt,
			&i.BlogTitle,
			&i.CategoryName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
