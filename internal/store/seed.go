// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultLanguages is the set of CMS content languages registered on startup.
var DefaultLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "de", Name: "German"},
	{Code: "fr", Name: "French"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "pl", Name: "Polish"},
	{Code: "ru", Name: "Russian"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "zh", Name: "Chinese"},
}

// Demo content identifiers
const (
	DemoCategorySlug = "tecnologia"
	DemoBlogSlug     = "bienvenidos-al-blog"
)

// Seed registers the default languages and, when withDemo is true, creates a
// small set of demo content that can be translated right away.
func Seed(ctx context.Context, db *sql.DB, withDemo bool) error {
	queries := New(db)

	for _, lang := range DefaultLanguages {
		if err := queries.UpsertLanguage(ctx, lang); err != nil {
			return fmt.Errorf("seeding language %s: %w", lang.Code, err)
		}
	}

	if !withDemo {
		return nil
	}

	exists, err := queries.BlogSlugExists(ctx, DemoBlogSlug)
	if err != nil {
		return fmt.Errorf("checking for demo blog: %w", err)
	}
	if exists > 0 {
		slog.Info("demo content already exists, skipping seed")
		return nil
	}

	return InTx(ctx, db, func(q *Queries) error {
		blog, err := seedDemo(ctx, q, time.Now().UTC())
		if err != nil {
			return err
		}
		slog.Info("created demo content", "blog_id", blog.ID, "slug", blog.Slug)
		return nil
	})
}

func seedDemo(ctx context.Context, q *Queries, now time.Time) (Blog, error) {
	author, err := q.CreateAuthor(ctx, CreateAuthorParams{
		Name:      "Equipo Editorial",
		Email:     "editorial@example.com",
		CreatedAt: now,
	})
	if err != nil {
		return Blog{}, fmt.Errorf("creating demo author: %w", err)
	}

	tag, err := q.CreateTag(ctx, CreateTagParams{Name: "Novedades", Slug: "novedades", CreatedAt: now})
	if err != nil {
		return Blog{}, fmt.Errorf("creating demo tag: %w", err)
	}

	category, err := q.CreateCategory(ctx, CreateCategoryParams{
		Name:         "Tecnología",
		Slug:         DemoCategorySlug,
		BaseLanguage: "es",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Blog{}, fmt.Errorf("creating demo category: %w", err)
	}

	blog, err := q.CreateBlog(ctx, CreateBlogParams{
		Title:          "Bienvenidos al blog",
		Content:        "<p>Este es el <strong>primer</strong> artículo del blog.</p>",
		TitlePunch:     sql.NullString{String: "Empezamos", Valid: true},
		SeoDescription: sql.NullString{String: "Primer artículo del blog", Valid: true},
		BaseLanguage:   "es",
		Slug:           DemoBlogSlug,
		CategoryID:     sql.NullInt64{Int64: category.ID, Valid: true},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Blog{}, fmt.Errorf("creating demo blog: %w", err)
	}

	if err := q.AddBlogAuthor(ctx, AddBlogAuthorParams{BlogID: blog.ID, AuthorID: author.ID}); err != nil {
		return Blog{}, fmt.Errorf("linking demo author: %w", err)
	}
	if err := q.AddBlogTag(ctx, AddBlogTagParams{BlogID: blog.ID, TagID: tag.ID}); err != nil {
		return Blog{}, fmt.Errorf("linking demo tag: %w", err)
	}

	return blog, nil
}

// IsNotFound reports whether err is the no-rows error returned by :one queries.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
