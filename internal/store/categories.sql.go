// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, base_language, is_translation, original_category_id, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.BaseLanguage,
		&i.IsTranslation,
		&i.OriginalCategoryID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (
	name, slug, base_language, is_translation, original_category_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	Name               string
	Slug               string
	BaseLanguage       string
	IsTranslation      bool
	OriginalCategoryID sql.NullInt64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory,
		arg.Name,
		arg.Slug,
		arg.BaseLanguage,
		arg.IsTranslation,
		arg.OriginalCategoryID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanCategory(row)
}

const getCategory = `-- name: GetCategory :one
SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const getCategoryTranslation = `-- name: GetCategoryTranslation :one
SELECT ` + categoryColumns + ` FROM categories
WHERE original_category_id = ? AND base_language = ? AND is_translation = 1`

type GetCategoryTranslationParams struct {
	OriginalCategoryID int64
	BaseLanguage       string
}

func (q *Queries) GetCategoryTranslation(ctx context.Context, arg GetCategoryTranslationParams) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategoryTranslation, arg.OriginalCategoryID, arg.BaseLanguage))
}

const countCategoryTranslations = `-- name: CountCategoryTranslations :one
SELECT COUNT(*) FROM categories
WHERE original_category_id = ? AND base_language = ? AND is_translation = 1`

type CountCategoryTranslationsParams struct {
	OriginalCategoryID int64
	BaseLanguage       string
}

func (q *Queries) CountCategoryTranslations(ctx context.Context, arg CountCategoryTranslationsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCategoryTranslations, arg.OriginalCategoryID, arg.BaseLanguage).Scan(&count)
	return count, err
}

const categorySlugExists = `-- name: CategorySlugExists :one
SELECT COUNT(*) FROM categories WHERE slug = ?`

func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, categorySlugExists, slug).Scan(&count)
	return count, err
}
