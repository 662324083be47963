// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/testutil"
)

func TestLedger_RecordAndLookup(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewLedger(db)

	has, err := ledger.HasTranslation(ctx, 1, model.EntityKindBlog, "en")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "en", 10))

	has, err = ledger.HasTranslation(ctx, 1, model.EntityKindBlog, "en")
	require.NoError(t, err)
	assert.True(t, has)

	id, ok, err := ledger.TranslatedID(ctx, 1, model.EntityKindBlog, "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(10), id)

	// Same original, other language and other kind are independent keys.
	has, err = ledger.HasTranslation(ctx, 1, model.EntityKindBlog, "de")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = ledger.HasTranslation(ctx, 1, model.EntityKindCategory, "en")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedger_RecordTranslation_Idempotent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewLedger(db)

	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindCategory, "en", 5))
	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindCategory, "en", 5))

	ids, err := ledger.TranslatedIDs(ctx, 1, model.EntityKindCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestLedger_RecordTranslation_Conflict(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewLedger(db)

	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "en", 10))

	err := ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "en", 11)
	assert.ErrorIs(t, err, ErrLedgerConflict)

	// A translated id can only belong to one original/language.
	err = ledger.RecordTranslation(ctx, 2, model.EntityKindBlog, "de", 10)
	assert.ErrorIs(t, err, ErrLedgerConflict)
}

func TestLedger_TranslatedIDs_NoDuplicateLanguages(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewLedger(db)

	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "en", 10))
	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "de", 11))
	require.NoError(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "fr", 12))
	require.Error(t, ledger.RecordTranslation(ctx, 1, model.EntityKindBlog, "en", 13))

	ids, err := ledger.TranslatedIDs(ctx, 1, model.EntityKindBlog)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, ids)

	none, err := ledger.TranslatedIDs(ctx, 99, model.EntityKindBlog)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_InvalidKind(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ledger := NewLedger(db)
	_, err := ledger.HasTranslation(context.Background(), 1, model.EntityKind("page"), "en")
	assert.Error(t, err)
	assert.Error(t, ledger.RecordTranslation(context.Background(), 1, model.EntityKind("page"), "en", 2))
}

func TestLedger_InTransaction(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, NewLedger(tx).RecordTranslation(ctx, 3, model.EntityKindBlog, "it", 30))
	require.NoError(t, tx.Rollback())

	has, err := NewLedger(db).HasTranslation(ctx, 3, model.EntityKindBlog, "it")
	require.NoError(t, err)
	assert.False(t, has, "rolled back ledger rows must not be visible")
}
