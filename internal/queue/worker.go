// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Runner runs one processing batch.
type Runner interface {
	ProcessQueue(ctx context.Context) (RunResult, error)
}

// Worker owns queue processing in the background. Triggers that arrive
// while a run is pending are coalesced into that run.
type Worker struct {
	runner  Runner
	logger  *slog.Logger
	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWorker creates a background worker around runner.
func NewWorker(runner Runner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		runner:  runner,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
}

// Start starts the worker goroutine. The worker stops when ctx is done or
// Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("translation queue worker started")
}

// Stop cancels the current run, if any, and waits for the worker to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("translation queue worker stopped")
}

// Trigger asks for a processing run without waiting for it. It returns
// false when a run was already requested and not yet started.
func (w *Worker) Trigger() bool {
	select {
	case w.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Running reports whether the worker has been started.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	result, err := w.runner.ProcessQueue(ctx)
	switch {
	case err == nil:
		w.logger.Debug("queue run done", "claimed", result.Claimed, "completed", result.Completed, "failed", result.Failed)
	case errors.Is(err, ErrRunInProgress):
		w.logger.Info("queue run skipped, another run is in progress")
	case errors.Is(err, context.Canceled):
		w.logger.Info("queue run cancelled", "completed", result.Completed, "failed", result.Failed)
	default:
		w.logger.Error("queue run failed", "error", err)
	}
}
