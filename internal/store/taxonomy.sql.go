// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createAuthor = `-- name: CreateAuthor :one
INSERT INTO authors (name, email, created_at) VALUES (?, ?, ?)
RETURNING id, name, email, created_at`

type CreateAuthorParams struct {
	Name      string
	Email     string
	CreatedAt time.Time
}

func (q *Queries) CreateAuthor(ctx context.Context, arg CreateAuthorParams) (Author, error) {
	var i Author
	err := q.db.QueryRowContext(ctx, createAuthor, arg.Name, arg.Email, arg.CreatedAt).Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.CreatedAt,
	)
	return i, err
}

const createTag = `-- name: CreateTag :one
INSERT INTO tags (name, slug, created_at) VALUES (?, ?, ?)
RETURNING id, name, slug, created_at`

type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	var i Tag
	err := q.db.QueryRowContext(ctx, createTag, arg.Name, arg.Slug, arg.CreatedAt).Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.CreatedAt,
	)
	return i, err
}

const upsertLanguage = `-- name: UpsertLanguage :exec
INSERT INTO languages (code, name) VALUES (?, ?)
ON CONFLICT (code) DO UPDATE SET name = excluded.name`

func (q *Queries) UpsertLanguage(ctx context.Context, arg Language) error {
	_, err := q.db.ExecContext(ctx, upsertLanguage, arg.Code, arg.Name)
	return err
}

const listLanguages = `-- name: ListLanguages :many
SELECT code, name FROM languages ORDER BY code`

func (q *Queries) ListLanguages(ctx context.Context) ([]Language, error) {
	rows, err := q.db.QueryContext(ctx, listLanguages)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Language
	for rows.Next() {
		var i Language
		if err := rows.Scan(&i.Code, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
