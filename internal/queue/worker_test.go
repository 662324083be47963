// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/testutil"
)

// blockingRunner counts runs and blocks each one until released or cancelled.
type blockingRunner struct {
	runs     atomic.Int32
	started  chan struct{}
	release  chan struct{}
	canceled atomic.Bool
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) ProcessQueue(ctx context.Context) (RunResult, error) {
	r.runs.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
		return RunResult{}, nil
	case <-ctx.Done():
		r.canceled.Store(true)
		return RunResult{}, ctx.Err()
	}
}

func waitStarted(t *testing.T, r *blockingRunner) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
	}
}

func TestWorker_TriggerRuns(t *testing.T) {
	runner := newBlockingRunner()
	w := NewWorker(runner, testutil.TestLoggerSilent())
	w.Start(context.Background())
	defer w.Stop()

	assert.True(t, w.Trigger())
	waitStarted(t, runner)
	runner.release <- struct{}{}

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWorker_TriggersCoalesce(t *testing.T) {
	runner := newBlockingRunner()
	w := NewWorker(runner, testutil.TestLoggerSilent())
	w.Start(context.Background())
	defer w.Stop()

	require.True(t, w.Trigger())
	waitStarted(t, runner)

	// One run in flight: the first extra trigger is queued, the rest coalesce.
	assert.True(t, w.Trigger())
	assert.False(t, w.Trigger())
	assert.False(t, w.Trigger())

	runner.release <- struct{}{}
	waitStarted(t, runner)
	runner.release <- struct{}{}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runner.runs.Load())
}

func TestWorker_StopCancelsRun(t *testing.T) {
	runner := newBlockingRunner()
	w := NewWorker(runner, testutil.TestLoggerSilent())
	w.Start(context.Background())

	require.True(t, w.Trigger())
	waitStarted(t, runner)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, runner.canceled.Load())
	assert.False(t, w.Running())
}

func TestWorker_StartStopIdempotent(t *testing.T) {
	w := NewWorker(newBlockingRunner(), testutil.TestLoggerSilent())

	w.Stop()
	w.Start(context.Background())
	w.Start(context.Background())
	assert.True(t, w.Running())
	w.Stop()
	w.Stop()
	assert.False(t, w.Running())
}

func TestWorker_ProcessesQueue(t *testing.T) {
	env := newTestEnv(t, Config{BatchSize: 5, MaxRetries: 3})
	blog := env.blog(t, testutil.BlogFixture{Title: "Hola"})
	env.enqueue(t, []int64{blog.ID}, "en", 0)

	w := NewWorker(env.processor, testutil.TestLoggerSilent())
	w.Start(context.Background())
	defer w.Stop()

	require.True(t, w.Trigger())
	assert.Eventually(t, func() bool {
		stats, err := env.jobs.Stats(context.Background())
		return err == nil && stats.Completed == 1
	}, 5*time.Second, 20*time.Millisecond)
}
