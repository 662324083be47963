// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/testutil"
)

type countingTrigger struct {
	calls  int
	result bool
}

func (c *countingTrigger) Trigger() bool {
	c.calls++
	return c.result
}

func TestAdmin_AddJobsAndActive(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	admin := NewAdmin(env.jobs, &countingTrigger{}, testutil.TestLoggerSilent())

	tech := testutil.CreateCategory(t, env.db, "Tech", "es")
	low := env.blog(t, testutil.BlogFixture{Title: "Low", CategoryID: tech.ID})
	high := env.blog(t, testutil.BlogFixture{Title: "High"})

	res, err := admin.AddJobs(ctx, []int64{low.ID}, "en", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	_, err = admin.AddJobs(ctx, []int64{high.ID}, "en", 3)
	require.NoError(t, err)

	jobs, err := admin.GetActiveJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "High", jobs[0].BlogTitle)
	assert.Empty(t, jobs[0].CategoryName)
	assert.Equal(t, "Low", jobs[1].BlogTitle)
	assert.Equal(t, "Tech", jobs[1].CategoryName)

	one, err := admin.GetActiveJobs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	job, err := admin.GetJob(ctx, jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, high.ID, job.SourceBlogID)

	stats, err := admin.GetQueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
}

func TestAdmin_StartProcessingDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, testConfig())
	trigger := &countingTrigger{result: true}
	admin := NewAdmin(env.jobs, trigger, testutil.TestLoggerSilent())

	assert.True(t, admin.StartProcessing())
	trigger.result = false
	assert.False(t, admin.StartProcessing())
	assert.Equal(t, 2, trigger.calls)
}

func TestAdmin_RetryAndCleanup(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	admin := NewAdmin(env.jobs, &countingTrigger{}, testutil.TestLoggerSilent())

	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)
	jobs, err := env.jobs.DequeueBatch(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.jobs.MarkProcessing(ctx, jobs[0].ID))
	require.NoError(t, env.jobs.MarkFailed(ctx, jobs[0].ID, "boom"))

	n, err := admin.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := admin.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	_, err = admin.Cleanup(ctx, -5)
	assert.Error(t, err)
}
