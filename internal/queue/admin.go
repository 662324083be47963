// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"log/slog"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Active job listing limits
const (
	DefaultActiveLimit = 20
	MaxActiveLimit     = 100
)

// Trigger starts a processing run without waiting for it.
type Trigger interface {
	Trigger() bool
}

// Admin is the operator surface over the queue.
type Admin struct {
	jobs    *Store
	trigger Trigger
	logger  *slog.Logger
}

// NewAdmin creates the admin surface.
func NewAdmin(jobs *Store, trigger Trigger, logger *slog.Logger) *Admin {
	return &Admin{
		jobs:    jobs,
		trigger: trigger,
		logger:  logger.With("category", model.EventCategoryQueue),
	}
}

// GetQueueStats returns job counts per status.
func (a *Admin) GetQueueStats(ctx context.Context) (model.QueueStats, error) {
	return a.jobs.Stats(ctx)
}

// GetActiveJobs lists pending and processing jobs in processing order.
func (a *Admin) GetActiveJobs(ctx context.Context, limit int) ([]model.ActiveJob, error) {
	switch {
	case limit <= 0:
		limit = DefaultActiveLimit
	case limit > MaxActiveLimit:
		limit = MaxActiveLimit
	}
	return a.jobs.Active(ctx, limit)
}

// GetJob returns one job.
func (a *Admin) GetJob(ctx context.Context, id string) (model.TranslationJob, error) {
	return a.jobs.Get(ctx, id)
}

// AddJobs enqueues translations of blogIDs into lang.
func (a *Admin) AddJobs(ctx context.Context, blogIDs []int64, lang string, priority int) (EnqueueResult, error) {
	result, err := a.jobs.Enqueue(ctx, blogIDs, lang, priority)
	if err != nil {
		return result, err
	}
	a.logger.Info("translation jobs enqueued",
		"language", lang,
		"priority", priority,
		"added", result.Added,
		"existing", result.Existing)
	return result, nil
}

// StartProcessing signals the background worker and returns immediately.
// It reports whether a new run was signalled.
func (a *Admin) StartProcessing() bool {
	started := a.trigger.Trigger()
	a.logger.Info("queue processing requested", "signalled", started)
	return started
}

// RetryFailed re-queues failed jobs under the retry cap.
func (a *Admin) RetryFailed(ctx context.Context) (int64, error) {
	n, err := a.jobs.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	a.logger.Info("failed translation jobs re-queued", "count", n)
	return n, nil
}

// Cleanup deletes completed jobs older than days.
func (a *Admin) Cleanup(ctx context.Context, days int) (int64, error) {
	n, err := a.jobs.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	a.logger.Info("completed translation jobs cleaned up", "count", n, "older_than_days", days)
	return n, nil
}
