// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the ocms-translate project.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/ocms-translate/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ocms-translate-test.db")

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// BlogFixture describes a blog row created by CreateBlog.
type BlogFixture struct {
	Title          string
	Content        string
	TitlePunch     string
	SeoDescription string
	Language       string
	CategoryID     int64
}

// CreateBlog inserts an original blog and returns it.
func CreateBlog(t *testing.T, db *sql.DB, f BlogFixture) store.Blog {
	t.Helper()

	if f.Title == "" {
		f.Title = "Blog"
	}
	if f.Language == "" {
		f.Language = "es"
	}
	now := time.Now().UTC()

	blog, err := store.New(db).CreateBlog(context.Background(), store.CreateBlogParams{
		Title:          f.Title,
		Content:        f.Content,
		TitlePunch:     sql.NullString{String: f.TitlePunch, Valid: f.TitlePunch != ""},
		SeoDescription: sql.NullString{String: f.SeoDescription, Valid: f.SeoDescription != ""},
		BaseLanguage:   f.Language,
		Slug:           uniqueSlug(f.Title),
		CategoryID:     sql.NullInt64{Int64: f.CategoryID, Valid: f.CategoryID != 0},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	return blog
}

// CreateCategory inserts an original category and returns it.
func CreateCategory(t *testing.T, db *sql.DB, name, lang string) store.Category {
	t.Helper()

	now := time.Now().UTC()
	category, err := store.New(db).CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:         name,
		Slug:         uniqueSlug(name),
		BaseLanguage: lang,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return category
}

var (
	slugMu  sync.Mutex
	slugSeq int
)

func uniqueSlug(title string) string {
	slugMu.Lock()
	defer slugMu.Unlock()
	slugSeq++
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	return fmt.Sprintf("%s-%d", base, slugSeq)
}
