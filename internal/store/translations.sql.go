// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getTranslation = `-- name: GetTranslation :one
SELECT id, entity_kind, original_id, language_code, translated_id, created_at
FROM translations
WHERE entity_kind = ? AND original_id = ? AND language_code = ?`

type GetTranslationParams struct {
	EntityKind   string
	OriginalID   int64
	LanguageCode string
}

func (q *Queries) GetTranslation(ctx context.Context, arg GetTranslationParams) (Translation, error) {
	var i Translation
	err := q.db.QueryRowContext(ctx, getTranslation, arg.EntityKind, arg.OriginalID, arg.LanguageCode).Scan(
		&i.ID,
		&i.EntityKind,
		&i.OriginalID,
		&i.LanguageCode,
		&i.TranslatedID,
		&i.CreatedAt,
	)
	return i, err
}

const createTranslation = `-- name: CreateTranslation :execrows
INSERT INTO translations (entity_kind, original_id, language_code, translated_id, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`

type CreateTranslationParams struct {
	EntityKind   string
	OriginalID   int64
	LanguageCode string
	TranslatedID int64
	CreatedAt    time.Time
}

// CreateTranslation inserts a ledger row and reports how many rows were
// written. Zero means an entry for the key or the translated id already exists.
func (q *Queries) CreateTranslation(ctx context.Context, arg CreateTranslationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTranslation,
		arg.EntityKind,
		arg.OriginalID,
		arg.LanguageCode,
		arg.TranslatedID,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTranslatedIDs = `-- name: ListTranslatedIDs :many
SELECT translated_id FROM translations
WHERE entity_kind = ? AND original_id = ?
ORDER BY id`

type ListTranslatedIDsParams struct {
	EntityKind string
	OriginalID int64
}

func (q *Queries) ListTranslatedIDs(ctx context.Context, arg ListTranslatedIDsParams) ([]int64, error) {
	return q.listIDs(ctx, listTranslatedIDs, arg.EntityKind, arg.OriginalID)
}
