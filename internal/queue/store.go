// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package queue implements the persisted translation job queue, the
// processor that drains it and the admin operations on top of both.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translate"
	"github.com/olegiv/ocms-translate/internal/translation"
)

// Queue defaults
const (
	DefaultBatchSize  = 5
	DefaultDelay      = 12 * time.Second
	DefaultMaxRetries = 3
	StaleJobMessage   = "processing interrupted: job was stale"
)

var (
	ErrJobNotFound      = errors.New("translation job not found")
	ErrJobNotPending    = errors.New("translation job is not pending")
	ErrJobNotProcessing = errors.New("translation job is not processing")
	ErrBlogNotFound     = errors.New("blog not found")
	ErrNotOriginal      = errors.New("blog is itself a translation")
	ErrNoBlogs          = errors.New("no blog ids given")
)

// Config holds queue tuning.
type Config struct {
	BatchSize  int           // jobs per processing run
	Delay      time.Duration // pause between jobs of one run
	MaxRetries int           // failed jobs with this many attempts are dead
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:  DefaultBatchSize,
		Delay:      DefaultDelay,
		MaxRetries: DefaultMaxRetries,
	}
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// EnqueueResult reports how many jobs were added and how many requested
// pairs were already translated or queued.
type EnqueueResult struct {
	Added    int `json:"added"`
	Existing int `json:"existing"`
}

// Store is the persisted job queue.
type Store struct {
	db      *sql.DB
	queries *store.Queries
	cfg     Config
	now     func() time.Time
}

// NewStore creates a job queue store on db.
func NewStore(db *sql.DB, cfg Config) *Store {
	return &Store{
		db:      db,
		queries: store.New(db),
		cfg:     cfg.withDefaults(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the effective queue configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Enqueue adds one pending job per blog id that has neither a translation
// into lang nor an open or retryable job for it. lang is stored in its
// canonical target form, so regional variants of one target share a job. The whole call is atomic: an unknown or
// non-original blog id rejects the batch.
func (s *Store) Enqueue(ctx context.Context, blogIDs []int64, lang string, priority int) (EnqueueResult, error) {
	var result EnqueueResult

	lang, err := translate.CanonicalTarget(lang)
	if err != nil {
		return result, err
	}

	ids := dedupeIDs(blogIDs)
	if len(ids) == 0 {
		return result, ErrNoBlogs
	}

	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		ledger := translation.NewLedger(q.DB())
		now := s.now()

		for _, id := range ids {
			exists, err := s.pairExists(ctx, q, ledger, id, lang)
			if err != nil {
				return err
			}
			if exists {
				result.Existing++
				continue
			}

			if _, err := q.CreateTranslationJob(ctx, store.CreateTranslationJobParams{
				ID:             uuid.NewString(),
				SourceBlogID:   id,
				TargetLanguage: lang,
				Priority:       int64(priority),
				CreatedAt:      now,
			}); err != nil {
				return fmt.Errorf("creating job for blog %d: %w", id, err)
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return EnqueueResult{}, err
	}

	return result, nil
}

// pairExists reports whether blog id needs no new job for lang.
func (s *Store) pairExists(ctx context.Context, q *store.Queries, ledger *translation.Ledger, id int64, lang string) (bool, error) {
	blog, err := q.GetBlog(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return false, fmt.Errorf("%w: %d", ErrBlogNotFound, id)
		}
		return false, fmt.Errorf("loading blog %d: %w", id, err)
	}
	if blog.IsTranslation {
		return false, fmt.Errorf("%w: %d", ErrNotOriginal, id)
	}
	if sameLanguage(blog.BaseLanguage, lang) {
		return true, nil
	}

	has, err := ledger.HasTranslation(ctx, id, model.EntityKindBlog, lang)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}

	translated, err := q.CountBlogTranslations(ctx, store.CountBlogTranslationsParams{
		OriginalBlogID: id,
		BaseLanguage:   lang,
	})
	if err != nil {
		return false, fmt.Errorf("counting translations of blog %d: %w", id, err)
	}
	if translated > 0 {
		return true, nil
	}

	open, err := q.CountOpenTranslationJobs(ctx, store.CountOpenTranslationJobsParams{
		SourceBlogID:   id,
		TargetLanguage: lang,
		MaxRetries:     int64(s.cfg.MaxRetries),
	})
	if err != nil {
		return false, fmt.Errorf("counting open jobs of blog %d: %w", id, err)
	}
	return open > 0, nil
}

// sameLanguage reports whether content written in base needs no translation
// into the canonical target lang.
func sameLanguage(base, lang string) bool {
	key, err := translate.CanonicalTarget(base)
	if err != nil {
		return translate.Normalize(base) == lang
	}
	return key == lang
}

// DequeueBatch returns up to limit pending jobs under the retry cap,
// highest priority first and FIFO within a priority. It does not claim them.
func (s *Store) DequeueBatch(ctx context.Context, limit int) ([]model.TranslationJob, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}

	rows, err := s.queries.ListDueTranslationJobs(ctx, store.ListDueTranslationJobsParams{
		MaxRetries: int64(s.cfg.MaxRetries),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing due jobs: %w", err)
	}

	jobs := make([]model.TranslationJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, jobFromRow(row))
	}
	return jobs, nil
}

// MarkProcessing claims a pending job. Only one caller can win the claim;
// the others get ErrJobNotPending.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	n, err := s.queries.ClaimTranslationJob(ctx, store.ClaimTranslationJobParams{
		ProcessedAt: sql.NullTime{Time: s.now(), Valid: true},
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("claiming job %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrJobNotPending, id)
}

// MarkCompleted marks a job completed.
func (s *Store) MarkCompleted(ctx context.Context, id string) error {
	n, err := s.queries.CompleteTranslationJob(ctx, store.CompleteTranslationJobParams{
		CompletedAt: sql.NullTime{Time: s.now(), Valid: true},
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// MarkFailed marks a job failed with msg and counts the attempt.
func (s *Store) MarkFailed(ctx context.Context, id, msg string) error {
	n, err := s.queries.FailTranslationJob(ctx, store.FailTranslationJobParams{
		ErrorMessage: sql.NullString{String: msg, Valid: true},
		ID:           id,
	})
	if err != nil {
		return fmt.Errorf("failing job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// Release returns a processing job to pending without counting an attempt.
// It is used when a run is stopped mid-job.
func (s *Store) Release(ctx context.Context, id string) error {
	n, err := s.queries.ReleaseTranslationJob(ctx, id)
	if err != nil {
		return fmt.Errorf("releasing job %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrJobNotProcessing, id)
}

// Get returns a job by id.
func (s *Store) Get(ctx context.Context, id string) (model.TranslationJob, error) {
	row, err := s.queries.GetTranslationJob(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return model.TranslationJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return model.TranslationJob{}, fmt.Errorf("loading job %s: %w", id, err)
	}
	return jobFromRow(row), nil
}

// Stats returns job counts per status.
func (s *Store) Stats(ctx context.Context) (model.QueueStats, error) {
	rows, err := s.queries.CountTranslationJobsByStatus(ctx)
	if err != nil {
		return model.QueueStats{}, fmt.Errorf("counting jobs: %w", err)
	}

	var stats model.QueueStats
	for _, row := range rows {
		switch model.JobStatus(row.Status) {
		case model.JobStatusPending:
			stats.Pending = row.Count
		case model.JobStatusProcessing:
			stats.Processing = row.Count
		case model.JobStatusCompleted:
			stats.Completed = row.Count
		case model.JobStatusFailed:
			stats.Failed = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}

// Active returns up to limit pending and processing jobs with a snapshot of
// their source blog, in processing order.
func (s *Store) Active(ctx context.Context, limit int) ([]model.ActiveJob, error) {
	rows, err := s.queries.ListActiveTranslationJobs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing active jobs: %w", err)
	}

	jobs := make([]model.ActiveJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, model.ActiveJob{
			TranslationJob: jobFromRow(row.TranslationJob),
			BlogTitle:      row.BlogTitle,
			CategoryName:   row.CategoryName.String,
		})
	}
	return jobs, nil
}

// RetryFailed moves failed jobs under the retry cap back to pending.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	n, err := s.queries.RetryFailedTranslationJobs(ctx, int64(s.cfg.MaxRetries))
	if err != nil {
		return 0, fmt.Errorf("retrying failed jobs: %w", err)
	}
	return n, nil
}

// Cleanup deletes completed jobs finished more than olderThanDays days ago.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("invalid retention %d days", olderThanDays)
	}

	before := s.now().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	n, err := s.queries.DeleteCompletedTranslationJobs(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("deleting completed jobs: %w", err)
	}
	return n, nil
}

// RecoverStale fails jobs stuck in processing for longer than olderThan,
// which happens when a run dies mid-job. They become retryable.
func (s *Store) RecoverStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.queries.FailStaleTranslationJobs(ctx, store.FailStaleTranslationJobsParams{
		ErrorMessage: sql.NullString{String: StaleJobMessage, Valid: true},
		Before:       s.now().Add(-olderThan),
	})
	if err != nil {
		return 0, fmt.Errorf("recovering stale jobs: %w", err)
	}
	return n, nil
}

func jobFromRow(row store.TranslationJob) model.TranslationJob {
	job := model.TranslationJob{
		ID:             row.ID,
		SourceBlogID:   row.SourceBlogID,
		TargetLanguage: row.TargetLanguage,
		Status:         model.JobStatus(row.Status),
		Priority:       int(row.Priority),
		RetryCount:     int(row.RetryCount),
		ErrorMessage:   row.ErrorMessage.String,
		CreatedAt:      row.CreatedAt,
	}
	if row.ProcessedAt.Valid {
		t := row.ProcessedAt.Time
		job.ProcessedAt = &t
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job
}

func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
