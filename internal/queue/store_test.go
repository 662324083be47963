// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/testutil"
	"github.com/olegiv/ocms-translate/internal/translate"
)

func TestEnqueue_Idempotent(t *testing.T) {
	env := newTestEnv(t, testConfig())
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola", Language: "es"})

	first := env.enqueue(t, []int64{blog.ID}, "en", 0)
	assert.Equal(t, EnqueueResult{Added: 1, Existing: 0}, first)

	// Open job for the pair.
	second := env.enqueue(t, []int64{blog.ID}, "en", 0)
	assert.Equal(t, EnqueueResult{Added: 0, Existing: 1}, second)

	_, err := env.processor.ProcessQueue(context.Background())
	require.NoError(t, err)

	// Translated blog exists.
	third := env.enqueue(t, []int64{blog.ID}, "en", 0)
	assert.Equal(t, EnqueueResult{Added: 0, Existing: 1}, third)
}

func TestEnqueue_DedupesIDs(t *testing.T) {
	env := newTestEnv(t, testConfig())
	a := env.blog(t, testutil.BlogFixture{Title: "A"})
	b := env.blog(t, testutil.BlogFixture{Title: "B"})

	res := env.enqueue(t, []int64{a.ID, b.ID, a.ID, a.ID}, "en", 0)
	assert.Equal(t, EnqueueResult{Added: 2, Existing: 0}, res)

	stats, err := env.jobs.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
}

func TestEnqueue_SameLanguageCountsAsExisting(t *testing.T) {
	env := newTestEnv(t, testConfig())
	blog := env.blog(t, testutil.BlogFixture{Title: "Hello", Language: "en"})

	res := env.enqueue(t, []int64{blog.ID}, "en", 0)
	assert.Equal(t, EnqueueResult{Added: 0, Existing: 1}, res)
}

func TestEnqueue_NormalizesLanguage(t *testing.T) {
	env := newTestEnv(t, testConfig())
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})

	env.enqueue(t, []int64{blog.ID}, "DE", 0)
	jobs, err := env.jobs.DequeueBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "de", jobs[0].TargetLanguage)

	res := env.enqueue(t, []int64{blog.ID}, "de", 0)
	assert.Equal(t, 1, res.Existing)
}

func TestEnqueue_CollapsesRegionalVariants(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola", Language: "es"})

	assert.Equal(t, EnqueueResult{Added: 1}, env.enqueue(t, []int64{blog.ID}, "en", 0))
	assert.Equal(t, EnqueueResult{Existing: 1}, env.enqueue(t, []int64{blog.ID}, "en-US", 0))
	assert.Equal(t, EnqueueResult{Existing: 1}, env.enqueue(t, []int64{blog.ID}, "es-MX", 0), "same language as the blog")
	assert.Equal(t, EnqueueResult{Added: 1}, env.enqueue(t, []int64{blog.ID}, "pt-BR", 0))
	assert.Equal(t, EnqueueResult{Added: 1}, env.enqueue(t, []int64{blog.ID}, "pt-PT", 0))

	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	var langs []string
	for _, job := range jobs {
		langs = append(langs, job.TargetLanguage)
	}
	assert.ElementsMatch(t, []string{"en", "pt", "pt-pt"}, langs)

	result, err := env.processor.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Completed)
	assert.Equal(t, 3, env.countRows(t, `SELECT COUNT(*) FROM blogs WHERE original_blog_id = ?`, blog.ID))

	// Translated: variants of a done target add nothing.
	assert.Equal(t, EnqueueResult{Existing: 1}, env.enqueue(t, []int64{blog.ID}, "en-us", 0))
}

func TestEnqueue_RegionalBaseLanguage(t *testing.T) {
	env := newTestEnv(t, testConfig())
	blog := env.blog(t, testutil.BlogFixture{Title: "Hello", Language: "en-US"})

	assert.Equal(t, EnqueueResult{Existing: 1}, env.enqueue(t, []int64{blog.ID}, "en", 0))
	assert.Equal(t, EnqueueResult{Added: 1}, env.enqueue(t, []int64{blog.ID}, "en-GB", 0))
}

func TestEnqueue_RetryableFailureCountsAsExisting(t *testing.T) {
	env := newTestEnv(t, Config{BatchSize: 5, MaxRetries: 2})
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	id := jobs[0].ID

	require.NoError(t, env.jobs.MarkProcessing(ctx, id))
	require.NoError(t, env.jobs.MarkFailed(ctx, id, "upstream down"))

	assert.Equal(t, EnqueueResult{Existing: 1}, env.enqueue(t, []int64{blog.ID}, "en", 0))

	retried, err := env.jobs.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retried)
	stats, err := env.jobs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	// At the retry cap the job is dead and a fresh one may be queued.
	require.NoError(t, env.jobs.MarkProcessing(ctx, id))
	require.NoError(t, env.jobs.MarkFailed(ctx, id, "upstream down"))
	assert.Equal(t, EnqueueResult{Added: 1}, env.enqueue(t, []int64{blog.ID}, "en", 0))
}

func TestEnqueue_Errors(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})

	t.Run("unknown blog rejects the whole batch", func(t *testing.T) {
		_, err := env.jobs.Enqueue(ctx, []int64{blog.ID, 999999}, "en", 0)
		assert.ErrorIs(t, err, ErrBlogNotFound)

		stats, err := env.jobs.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.Total)
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, err := env.jobs.Enqueue(ctx, []int64{blog.ID}, "xx", 0)
		assert.ErrorIs(t, err, translate.ErrUnsupportedLanguage)
	})

	t.Run("no ids", func(t *testing.T) {
		_, err := env.jobs.Enqueue(ctx, nil, "en", 0)
		assert.ErrorIs(t, err, ErrNoBlogs)
	})

	t.Run("translated blog", func(t *testing.T) {
		env.enqueue(t, []int64{blog.ID}, "fr", 0)
		_, err := env.processor.ProcessQueue(ctx)
		require.NoError(t, err)

		translated, err := env.queries.GetBlogTranslation(ctx, store.GetBlogTranslationParams{OriginalBlogID: blog.ID, BaseLanguage: "fr"})
		require.NoError(t, err)

		_, err = env.jobs.Enqueue(ctx, []int64{translated.ID}, "de", 0)
		assert.ErrorIs(t, err, ErrNotOriginal)
	})
}

func TestDequeueBatch_PriorityThenFIFO(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	// Identical timestamps: insertion order must still win within a priority.
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env.jobs.now = func() time.Time { return fixed }

	var blogs []int64
	for _, title := range []string{"low-1", "high-1", "low-2", "high-2", "mid"} {
		blogs = append(blogs, env.blog(t, testutil.BlogFixture{Title: title}).ID)
	}
	env.enqueue(t, []int64{blogs[0]}, "en", 0)
	env.enqueue(t, []int64{blogs[1]}, "en", 10)
	env.enqueue(t, []int64{blogs[2]}, "en", 0)
	env.enqueue(t, []int64{blogs[3]}, "en", 10)
	env.enqueue(t, []int64{blogs[4]}, "en", 5)

	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)

	var got []int64
	for _, job := range jobs {
		got = append(got, job.SourceBlogID)
	}
	assert.Equal(t, []int64{blogs[1], blogs[3], blogs[4], blogs[0], blogs[2]}, got)

	limited, err := env.jobs.DequeueBatch(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDequeueBatch_EarlierCreatedFirst(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := env.blog(t, testutil.BlogFixture{Title: "older"})
	newer := env.blog(t, testutil.BlogFixture{Title: "newer"})

	env.jobs.now = func() time.Time { return base.Add(time.Minute) }
	env.enqueue(t, []int64{newer.ID}, "en", 0)
	env.jobs.now = func() time.Time { return base }
	env.enqueue(t, []int64{older.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, older.ID, jobs[0].SourceBlogID)
}

func TestMarkProcessing_AtMostOnce(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	id := jobs[0].ID

	const claimers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		lost    int
		unknown []error
	)
	for range claimers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.jobs.MarkProcessing(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrJobNotPending):
				lost++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, won)
	assert.Equal(t, claimers-1, lost)

	job, err := env.jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)
}

func TestMarkTransitions_UnknownJob(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	assert.ErrorIs(t, env.jobs.MarkProcessing(ctx, "missing"), ErrJobNotFound)
	assert.ErrorIs(t, env.jobs.MarkCompleted(ctx, "missing"), ErrJobNotFound)
	assert.ErrorIs(t, env.jobs.MarkFailed(ctx, "missing", "boom"), ErrJobNotFound)

	_, err := env.jobs.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRetryCap(t *testing.T) {
	env := newTestEnv(t, Config{BatchSize: 5, MaxRetries: 2})
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	id := jobs[0].ID

	for attempt := 1; attempt <= 2; attempt++ {
		require.NoError(t, env.jobs.MarkProcessing(ctx, id))
		require.NoError(t, env.jobs.MarkFailed(ctx, id, "upstream down"))

		job, err := env.jobs.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		assert.Equal(t, attempt, job.RetryCount)
		assert.Equal(t, "upstream down", job.ErrorMessage)
		assert.Nil(t, job.CompletedAt, "failed job never completed")

		retried, err := env.jobs.RetryFailed(ctx)
		require.NoError(t, err)
		if attempt < 2 {
			assert.Equal(t, int64(1), retried)
		} else {
			assert.Equal(t, int64(0), retried, "job at the retry cap must stay failed")
		}
	}

	due, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	job, err := env.jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
}

func TestRetryFailed_ClearsError(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	id := jobs[0].ID
	require.NoError(t, env.jobs.MarkProcessing(ctx, id))
	require.NoError(t, env.jobs.MarkFailed(ctx, id, "boom"))

	n, err := env.jobs.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := env.jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Empty(t, job.ErrorMessage)
	assert.Nil(t, job.ProcessedAt)
	assert.Equal(t, 1, job.RetryCount)
}

func TestCleanup_OnlyOldCompleted(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	var ids []string
	for _, title := range []string{"old-done", "old-failed", "new-done", "pending"} {
		blog := env.blog(t, testutil.BlogFixture{Title: title})
		env.enqueue(t, []int64{blog.ID}, "en", 0)
	}
	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	env.jobs.now = func() time.Time { return old }
	require.NoError(t, env.jobs.MarkProcessing(ctx, ids[0]))
	require.NoError(t, env.jobs.MarkCompleted(ctx, ids[0]))
	require.NoError(t, env.jobs.MarkProcessing(ctx, ids[1]))
	require.NoError(t, env.jobs.MarkFailed(ctx, ids[1], "boom"))

	env.jobs.now = func() time.Time { return now }
	require.NoError(t, env.jobs.MarkProcessing(ctx, ids[2]))
	require.NoError(t, env.jobs.MarkCompleted(ctx, ids[2]))

	deleted, err := env.jobs.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = env.jobs.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrJobNotFound)
	for _, id := range ids[1:] {
		_, err := env.jobs.Get(ctx, id)
		assert.NoError(t, err)
	}

	_, err = env.jobs.Cleanup(ctx, -1)
	assert.Error(t, err)
}

func TestRecoverStale(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	now := time.Now().UTC()

	for _, title := range []string{"stale", "fresh"} {
		blog := env.blog(t, testutil.BlogFixture{Title: title})
		env.enqueue(t, []int64{blog.ID}, "en", 0)
	}
	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	env.jobs.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, env.jobs.MarkProcessing(ctx, jobs[0].ID))
	env.jobs.now = func() time.Time { return now }
	require.NoError(t, env.jobs.MarkProcessing(ctx, jobs[1].ID))

	n, err := env.jobs.RecoverStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stale, err := env.jobs.Get(ctx, jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, stale.Status)
	assert.Equal(t, StaleJobMessage, stale.ErrorMessage)
	assert.Nil(t, stale.CompletedAt)

	fresh, err := env.jobs.Get(ctx, jobs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, fresh.Status)
}

func TestRelease(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	id := jobs[0].ID

	assert.ErrorIs(t, env.jobs.Release(ctx, id), ErrJobNotProcessing)
	assert.ErrorIs(t, env.jobs.Release(ctx, "missing"), ErrJobNotFound)

	require.NoError(t, env.jobs.MarkProcessing(ctx, id))
	require.NoError(t, env.jobs.Release(ctx, id))

	job, err := env.jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Zero(t, job.RetryCount)
	assert.Nil(t, job.ProcessedAt)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		blog := env.blog(t, testutil.BlogFixture{Title: title})
		env.enqueue(t, []int64{blog.ID}, "en", 0)
	}
	jobs, err := env.jobs.DequeueBatch(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, env.jobs.MarkProcessing(ctx, jobs[0].ID))
	require.NoError(t, env.jobs.MarkCompleted(ctx, jobs[0].ID))
	require.NoError(t, env.jobs.MarkProcessing(ctx, jobs[1].ID))

	stats, err := env.jobs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStats{Pending: 1, Processing: 1, Completed: 1, Failed: 0, Total: 3}, stats)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{BatchSize: -1, Delay: -time.Second}.withDefaults()
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.Delay)

	assert.Equal(t, Config{BatchSize: 5, Delay: 12 * time.Second, MaxRetries: 3}, DefaultConfig())
}
