// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translate"
	"github.com/olegiv/ocms-translate/internal/translation"
	"github.com/olegiv/ocms-translate/internal/util"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RunResult summarises one processing run.
type RunResult struct {
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Released  int `json:"released"` // returned to pending when the run stopped
	Skipped   int `json:"skipped"`  // claimed by another run first
}

type jobOutcome int

const (
	jobCompleted jobOutcome = iota
	jobFailed
	jobReleased
)

// Processor drains the job queue, translating one blog per job.
type Processor struct {
	db         *sql.DB
	jobs       *Store
	translator *translation.EntityTranslator
	lock       RunLock
	sleep      Sleeper
	logger     *slog.Logger
	now        func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithSleeper replaces the pause between jobs.
func WithSleeper(s Sleeper) ProcessorOption {
	return func(p *Processor) { p.sleep = s }
}

// WithRunLock replaces the in-process run lock.
func WithRunLock(l RunLock) ProcessorOption {
	return func(p *Processor) { p.lock = l }
}

// NewProcessor creates a queue processor.
func NewProcessor(db *sql.DB, jobs *Store, gateway translate.Translator, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		db:         db,
		jobs:       jobs,
		translator: translation.NewEntityTranslator(gateway),
		lock:       NewLocalLock(),
		sleep:      sleepContext,
		logger:     logger.With("category", model.EventCategoryQueue),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessQueue runs one batch: up to BatchSize due jobs, strictly one after
// another with the configured delay between them. A job failure does not
// stop the batch; cancellation of ctx does.
func (p *Processor) ProcessQueue(ctx context.Context) (RunResult, error) {
	var result RunResult

	release, err := p.lock.Acquire(ctx)
	if err != nil {
		return result, err
	}
	defer release()

	cfg := p.jobs.Config()
	jobs, err := p.jobs.DequeueBatch(ctx, cfg.BatchSize)
	if err != nil {
		return result, err
	}
	if len(jobs) == 0 {
		return result, nil
	}

	p.logger.Info("processing translation queue", "jobs", len(jobs))

	pause := false
	for _, job := range jobs {
		if pause {
			if err := p.sleep(ctx, cfg.Delay); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := p.jobs.MarkProcessing(ctx, job.ID); err != nil {
			if errors.Is(err, ErrJobNotPending) || errors.Is(err, ErrJobNotFound) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Claimed++
		pause = true

		switch p.runJob(ctx, job) {
		case jobCompleted:
			result.Completed++
		case jobFailed:
			result.Failed++
		case jobReleased:
			result.Released++
		}
	}

	p.logger.Info("translation queue run finished",
		"claimed", result.Claimed,
		"completed", result.Completed,
		"failed", result.Failed,
		"released", result.Released,
		"skipped", result.Skipped)

	return result, ctx.Err()
}

// runJob processes a claimed job and records its outcome. A job cut short
// by cancellation of the run goes back to pending without using an attempt.
func (p *Processor) runJob(ctx context.Context, job model.TranslationJob) jobOutcome {
	start := time.Now()
	jobErr := p.processJob(ctx, job)

	// Outcome is recorded even when the run is being cancelled.
	statusCtx := context.WithoutCancel(ctx)

	if jobErr != nil && ctx.Err() != nil && errors.Is(jobErr, ctx.Err()) {
		p.logger.Info("translation job interrupted, returning it to the queue",
			"job_id", job.ID,
			"blog_id", job.SourceBlogID,
			"language", job.TargetLanguage)
		if err := p.jobs.Release(statusCtx, job.ID); err != nil {
			p.logger.Error("failed to release job", "job_id", job.ID, "error", err)
		}
		return jobReleased
	}

	if jobErr != nil {
		p.logger.Warn("translation job failed",
			"job_id", job.ID,
			"blog_id", job.SourceBlogID,
			"language", job.TargetLanguage,
			"error", jobErr)
		if err := p.jobs.MarkFailed(statusCtx, job.ID, jobErr.Error()); err != nil {
			p.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		}
		return jobFailed
	}

	if err := p.jobs.MarkCompleted(statusCtx, job.ID); err != nil {
		p.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
		return jobFailed
	}
	p.logger.Info("translation job completed",
		"job_id", job.ID,
		"blog_id", job.SourceBlogID,
		"language", job.TargetLanguage,
		"duration", time.Since(start))
	return jobCompleted
}

// processJob translates the job's category (best effort) and then its blog.
func (p *Processor) processJob(ctx context.Context, job model.TranslationJob) error {
	q := store.New(p.db)
	lang := job.TargetLanguage

	blog, err := q.GetBlog(ctx, job.SourceBlogID)
	if err != nil {
		if store.IsNotFound(err) {
			return fmt.Errorf("%w: %d", ErrBlogNotFound, job.SourceBlogID)
		}
		return fmt.Errorf("loading blog %d: %w", job.SourceBlogID, err)
	}
	if blog.IsTranslation {
		return fmt.Errorf("%w: %d", ErrNotOriginal, blog.ID)
	}

	done, err := p.existingBlogTranslation(ctx, q, blog.ID, lang)
	if err != nil {
		return err
	}
	if done {
		p.logger.Info("blog already translated, nothing to do", "job_id", job.ID, "blog_id", blog.ID, "language", lang)
		return nil
	}

	categoryID := p.translateCategory(ctx, blog, lang)

	fields, err := p.translator.TranslateBlogFields(ctx, translation.BlogFields{
		Title:          blog.Title,
		Content:        blog.Content,
		TitlePunch:     util.StringPtrFromNull(blog.TitlePunch),
		SEODescription: util.StringPtrFromNull(blog.SeoDescription),
	}, blog.BaseLanguage, lang)
	if err != nil {
		return err
	}

	return store.InTx(ctx, p.db, func(tq *store.Queries) error {
		done, err := p.existingBlogTranslation(ctx, tq, blog.ID, lang)
		if err != nil || done {
			return err
		}

		slug, err := util.UniqueSlug(translatedSlug(fields.Title, blog.Slug, lang), func(s string) (bool, error) {
			n, err := tq.BlogSlugExists(ctx, s)
			return n > 0, err
		})
		if err != nil {
			return err
		}

		now := p.now()
		created, err := tq.CreateBlog(ctx, store.CreateBlogParams{
			Title:          fields.Title,
			Content:        fields.Content,
			TitlePunch:     util.NullStringFromPtr(fields.TitlePunch),
			SeoDescription: util.NullStringFromPtr(fields.SEODescription),
			BaseLanguage:   lang,
			Slug:           slug,
			CategoryID:     categoryID,
			IsTranslation:  true,
			OriginalBlogID: util.NullInt64FromValue(blog.ID),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("creating translated blog: %w", err)
		}

		if err := copyAssociations(ctx, tq, blog.ID, created.ID); err != nil {
			return err
		}

		return translation.NewLedger(tq.DB()).RecordTranslation(ctx, blog.ID, model.EntityKindBlog, lang, created.ID)
	})
}

// existingBlogTranslation reports whether blogID already has a translation
// into lang. A translated row missing from the ledger is recorded there.
func (p *Processor) existingBlogTranslation(ctx context.Context, q *store.Queries, blogID int64, lang string) (bool, error) {
	ledger := translation.NewLedger(q.DB())
	has, err := ledger.HasTranslation(ctx, blogID, model.EntityKindBlog, lang)
	if err != nil || has {
		return has, err
	}

	row, err := q.GetBlogTranslation(ctx, store.GetBlogTranslationParams{OriginalBlogID: blogID, BaseLanguage: lang})
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("looking up blog %d translation: %w", blogID, err)
	}
	return true, ledger.RecordTranslation(ctx, blogID, model.EntityKindBlog, lang, row.ID)
}

// translateCategory returns the category id the translated blog should use.
// Failures are logged and the source category id is kept.
func (p *Processor) translateCategory(ctx context.Context, blog store.Blog, lang string) sql.NullInt64 {
	if !blog.CategoryID.Valid {
		return blog.CategoryID
	}

	id, err := p.ensureCategoryTranslation(ctx, blog.CategoryID.Int64, lang)
	if err != nil {
		p.logger.Warn("category translation failed, keeping source category",
			"blog_id", blog.ID,
			"category_id", blog.CategoryID.Int64,
			"language", lang,
			"error", err)
		return blog.CategoryID
	}
	return util.NullInt64FromValue(id)
}

// ensureCategoryTranslation returns the id of categoryID's translation into
// lang, creating it when none exists.
func (p *Processor) ensureCategoryTranslation(ctx context.Context, categoryID int64, lang string) (int64, error) {
	q := store.New(p.db)

	if id, ok, err := p.existingCategoryTranslation(ctx, q, categoryID, lang); err != nil || ok {
		return id, err
	}

	category, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("loading category %d: %w", categoryID, err)
	}
	if sameLanguage(category.BaseLanguage, lang) {
		return category.ID, nil
	}

	fields, err := p.translator.TranslateCategoryFields(ctx, translation.CategoryFields{Name: category.Name}, category.BaseLanguage, lang)
	if err != nil {
		return 0, err
	}

	var newID int64
	err = store.InTx(ctx, p.db, func(tq *store.Queries) error {
		id, ok, err := p.existingCategoryTranslation(ctx, tq, categoryID, lang)
		if err != nil {
			return err
		}
		if ok {
			newID = id
			return nil
		}

		slug, err := util.UniqueSlug(translatedSlug(fields.Name, category.Slug, lang), func(s string) (bool, error) {
			n, err := tq.CategorySlugExists(ctx, s)
			return n > 0, err
		})
		if err != nil {
			return err
		}

		now := p.now()
		created, err := tq.CreateCategory(ctx, store.CreateCategoryParams{
			Name:               fields.Name,
			Slug:               slug,
			BaseLanguage:       lang,
			IsTranslation:      true,
			OriginalCategoryID: util.NullInt64FromValue(category.ID),
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("creating translated category: %w", err)
		}

		newID = created.ID
		return translation.NewLedger(tq.DB()).RecordTranslation(ctx, category.ID, model.EntityKindCategory, lang, created.ID)
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

func (p *Processor) existingCategoryTranslation(ctx context.Context, q *store.Queries, categoryID int64, lang string) (int64, bool, error) {
	ledger := translation.NewLedger(q.DB())
	id, ok, err := ledger.TranslatedID(ctx, categoryID, model.EntityKindCategory, lang)
	if err != nil || ok {
		return id, ok, err
	}

	row, err := q.GetCategoryTranslation(ctx, store.GetCategoryTranslationParams{OriginalCategoryID: categoryID, BaseLanguage: lang})
	if err != nil {
		if store.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("looking up category %d translation: %w", categoryID, err)
	}
	if err := ledger.RecordTranslation(ctx, categoryID, model.EntityKindCategory, lang, row.ID); err != nil {
		return 0, false, err
	}
	return row.ID, true, nil
}

func copyAssociations(ctx context.Context, q *store.Queries, fromID, toID int64) error {
	authors, err := q.ListBlogAuthorIDs(ctx, fromID)
	if err != nil {
		return fmt.Errorf("listing authors of blog %d: %w", fromID, err)
	}
	for _, authorID := range authors {
		if err := q.AddBlogAuthor(ctx, store.AddBlogAuthorParams{BlogID: toID, AuthorID: authorID}); err != nil {
			return fmt.Errorf("copying author %d: %w", authorID, err)
		}
	}

	tags, err := q.ListBlogTagIDs(ctx, fromID)
	if err != nil {
		return fmt.Errorf("listing tags of blog %d: %w", fromID, err)
	}
	for _, tagID := range tags {
		if err := q.AddBlogTag(ctx, store.AddBlogTagParams{BlogID: toID, TagID: tagID}); err != nil {
			return fmt.Errorf("copying tag %d: %w", tagID, err)
		}
	}
	return nil
}

// translatedSlug builds "<slug of title>-<lang>", falling back to the
// source slug when the translated title has no usable characters.
func translatedSlug(title, sourceSlug, lang string) string {
	base := util.Slugify(title)
	if base == "" {
		base = sourceSlug
	}
	return base + "-" + util.Slugify(lang)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
