// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const blogColumns = `id, title, content, title_punch, seo_description, base_language, slug,
	category_id, is_translation, original_blog_id, created_at, updated_at`

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var i Blog
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Content,
		&i.TitlePunch,
		&i.SeoDescription,
		&i.BaseLanguage,
		&i.Slug,
		&i.CategoryID,
		&i.IsTranslation,
		&i.OriginalBlogID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBlog = `-- name: CreateBlog :one
INSERT INTO blogs (
	title, content, title_punch, seo_description, base_language, slug,
	category_id, is_translation, original_blog_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + blogColumns

type CreateBlogParams struct {
	Title          string
	Content        string
	TitlePunch     sql.NullString
	SeoDescription sql.NullString
	BaseLanguage   string
	Slug           string
	CategoryID     sql.NullInt64
	IsTranslation  bool
	OriginalBlogID sql.NullInt64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) CreateBlog(ctx context.Context, arg CreateBlogParams) (Blog, error) {
	row := q.db.QueryRowContext(ctx, createBlog,
		arg.Title,
		arg.Content,
		arg.TitlePunch,
		arg.SeoDescription,
		arg.BaseLanguage,
		arg.Slug,
		arg.CategoryID,
		arg.IsTranslation,
		arg.OriginalBlogID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanBlog(row)
}

const getBlog = `-- name: GetBlog :one
SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`

func (q *Queries) GetBlog(ctx context.Context, id int64) (Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlog, id))
}

const getBlogTranslation = `-- name: GetBlogTranslation :one
SELECT ` + blogColumns + ` FROM blogs
WHERE original_blog_id = ? AND base_language = ? AND is_translation = 1`

type GetBlogTranslationParams struct {
	OriginalBlogID int64
	BaseLanguage   string
}

func (q *Queries) GetBlogTranslation(ctx context.Context, arg GetBlogTranslationParams) (Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, getBlogTranslation, arg.OriginalBlogID, arg.BaseLanguage))
}

const countBlogTranslations = `-- name: CountBlogTranslations :one
SELECT COUNT(*) FROM blogs
WHERE original_blog_id = ? AND base_language = ? AND is_translation = 1`

type CountBlogTranslationsParams struct {
	OriginalBlogID int64
	BaseLanguage   string
}

func (q *Queries) CountBlogTranslations(ctx context.Context, arg CountBlogTranslationsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBlogTranslations, arg.OriginalBlogID, arg.BaseLanguage).Scan(&count)
	return count, err
}

const blogSlugExists = `-- name: BlogSlugExists :one
SELECT COUNT(*) FROM blogs WHERE slug = ?`

func (q *Queries) BlogSlugExists(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, blogSlugExists, slug).Scan(&count)
	return count, err
}

const addBlogAuthor = `-- name: AddBlogAuthor :exec
INSERT OR IGNORE INTO blog_authors (blog_id, author_id) VALUES (?, ?)`

type AddBlogAuthorParams struct {
	BlogID   int64
	AuthorID int64
}

func (q *Queries) AddBlogAuthor(ctx context.Context, arg AddBlogAuthorParams) error {
	_, err := q.db.ExecContext(ctx, addBlogAuthor, arg.BlogID, arg.AuthorID)
	return err
}

const addBlogTag = `-- name: AddBlogTag :exec
INSERT OR IGNORE INTO blog_tags (blog_id, tag_id) VALUES (?, ?)`

type AddBlogTagParams struct {
	BlogID int64
	TagID  int64
}

func (q *Queries) AddBlogTag(ctx context.Context, arg AddBlogTagParams) error {
	_, err := q.db.ExecContext(ctx, addBlogTag, arg.BlogID, arg.TagID)
	return err
}

const listBlogAuthorIDs = `-- name: ListBlogAuthorIDs :many
SELECT author_id FROM blog_authors WHERE blog_id = ? ORDER BY author_id`

func (q *Queries) ListBlogAuthorIDs(ctx context.Context, blogID int64) ([]int64, error) {
	return q.listIDs(ctx, listBlogAuthorIDs, blogID)
}

const listBlogTagIDs = `-- name: ListBlogTagIDs :many
SELECT tag_id FROM blog_tags WHERE blog_id = ? ORDER BY tag_id`

func (q *Queries) ListBlogTagIDs(ctx context.Context, blogID int64) ([]int64, error) {
	return q.listIDs(ctx, listBlogTagIDs, blogID)
}

func (q *Queries) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
