// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

// fakeTranslator prefixes texts with the target language. Texts listed in
// failOn make the whole call fail with err.
type fakeTranslator struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, texts []string, _, to string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	out := make([]string, len(texts))
	for i, text := range texts {
		if f.failOn[text] {
			return nil, f.err
		}
		out[i] = "[" + to + "] " + text
	}
	return out, nil
}

func (f *fakeTranslator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingSleeper records requested pauses without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	pauses []time.Duration
	err    error
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses = append(r.pauses, d)
	if r.err != nil {
		return r.err
	}
	return ctx.Err()
}

func (r *recordingSleeper) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.pauses...)
}

type testEnv struct {
	db         *sql.DB
	queries    *store.Queries
	jobs       *Store
	translator *fakeTranslator
	sleeper    *recordingSleeper
	processor  *Processor
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	env := &testEnv{
		db:         db,
		queries:    store.New(db),
		jobs:       NewStore(db, cfg),
		translator: &fakeTranslator{},
		sleeper:    &recordingSleeper{},
	}
	env.processor = NewProcessor(db, env.jobs, env.translator, testutil.TestLoggerSilent(),
		WithSleeper(env.sleeper.Sleep))
	return env
}

func testConfig() Config {
	return Config{BatchSize: 5, Delay: 12 * time.Second, MaxRetries: 3}
}

func (e *testEnv) blog(t *testing.T, f testutil.BlogFixture) store.Blog {
	t.Helper()
	return testutil.CreateBlog(t, e.db, f)
}

func (e *testEnv) enqueue(t *testing.T, ids []int64, lang string, priority int) EnqueueResult {
	t.Helper()
	res, err := e.jobs.Enqueue(context.Background(), ids, lang, priority)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return res
}

func (e *testEnv) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func sqlNullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}
