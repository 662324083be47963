// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic translation queue tasks: processing
// ticks and retention cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-translate/internal/model"
)

// Default schedules
const (
	DefaultProcessSchedule = "*/5 * * * *"
	DefaultCleanupSchedule = "@daily"
)

// Trigger requests a queue processing run without waiting for it.
type Trigger interface {
	Trigger() bool
}

// Maintainer performs queue housekeeping.
type Maintainer interface {
	RecoverStale(ctx context.Context, olderThan time.Duration) (int64, error)
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// Config holds the task schedules.
type Config struct {
	ProcessSchedule string        // empty disables periodic processing
	CleanupSchedule string        // empty disables housekeeping
	CleanupDays     int           // completed jobs older than this are deleted; 0 keeps them
	StaleAfter      time.Duration // processing jobs older than this are failed; 0 disables
}

// JobInfo is the public view of a scheduled task.
type JobInfo struct {
	Name     string
	Schedule string
	NextRun  time.Time
	LastRun  time.Time
}

type registeredJob struct {
	name     string
	schedule string
	entryID  cron.EntryID
}

// Scheduler runs queue tasks on cron schedules.
type Scheduler struct {
	cron       *cron.Cron
	cfg        Config
	trigger    Trigger
	maintainer Maintainer
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs []registeredJob
}

// New creates a new scheduler instance.
func New(cfg Config, trigger Trigger, maintainer Maintainer, logger *slog.Logger) *Scheduler {
	logger = logger.With("category", model.EventCategoryQueue)
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		cfg:        cfg,
		trigger:    trigger,
		maintainer: maintainer,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the configured tasks and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.cfg.ProcessSchedule != "" && s.trigger != nil {
		if err := s.add("process-queue", s.cfg.ProcessSchedule, s.processTick); err != nil {
			return err
		}
	}
	if s.cfg.CleanupSchedule != "" && s.maintainer != nil {
		if err := s.add("queue-housekeeping", s.cfg.CleanupSchedule, s.housekeeping); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs lists the registered tasks with their next and previous run times.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		out = append(out, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			NextRun:  entry.Next,
			LastRun:  entry.Prev,
		})
	}
	return out
}

func (s *Scheduler) add(name, schedule string, fn func()) error {
	id, err := s.cron.AddFunc(schedule, fn)
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", name, schedule, err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, registeredJob{name: name, schedule: schedule, entryID: id})
	s.mu.Unlock()
	return nil
}

// processTick signals the queue worker. A run already pending absorbs it.
func (s *Scheduler) processTick() {
	if s.trigger.Trigger() {
		s.logger.Debug("scheduled queue run signalled")
	}
}

// housekeeping fails stale processing jobs and deletes old completed ones.
func (s *Scheduler) housekeeping() {
	if s.cfg.StaleAfter > 0 {
		n, err := s.maintainer.RecoverStale(s.ctx, s.cfg.StaleAfter)
		if err != nil {
			s.logger.Error("failed to recover stale translation jobs", "error", err)
		} else if n > 0 {
			s.logger.Warn("stale translation jobs marked failed", "count", n, "older_than", s.cfg.StaleAfter)
		}
	}

	if s.cfg.CleanupDays > 0 {
		n, err := s.maintainer.Cleanup(s.ctx, s.cfg.CleanupDays)
		if err != nil {
			s.logger.Error("failed to clean up completed translation jobs", "error", err)
			return
		}
		s.logger.Info("completed translation jobs cleaned up", "count", n, "older_than_days", s.cfg.CleanupDays)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
