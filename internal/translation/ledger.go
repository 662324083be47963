// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/store"
)

// ErrLedgerConflict is returned when a different translation is already
// recorded for the same (kind, original, language).
var ErrLedgerConflict = errors.New("translation ledger conflict")

// Ledger tracks which originals already have a translation per language.
type Ledger struct {
	queries *store.Queries
}

// NewLedger creates a Ledger on db, which may be a *sql.DB or a *sql.Tx.
func NewLedger(db store.DBTX) *Ledger {
	return &Ledger{queries: store.New(db)}
}

// HasTranslation reports whether originalID already has a translation into lang.
func (l *Ledger) HasTranslation(ctx context.Context, originalID int64, kind model.EntityKind, lang string) (bool, error) {
	_, ok, err := l.TranslatedID(ctx, originalID, kind, lang)
	return ok, err
}

// TranslatedID returns the id of the translation of originalID into lang.
func (l *Ledger) TranslatedID(ctx context.Context, originalID int64, kind model.EntityKind, lang string) (int64, bool, error) {
	if !kind.Valid() {
		return 0, false, fmt.Errorf("unknown entity kind %q", kind)
	}

	tr, err := l.queries.GetTranslation(ctx, store.GetTranslationParams{
		EntityKind:   string(kind),
		OriginalID:   originalID,
		LanguageCode: lang,
	})
	if err != nil {
		if store.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("looking up %s %d translation into %s: %w", kind, originalID, lang, err)
	}
	return tr.TranslatedID, true, nil
}

// RecordTranslation records newID as the translation of originalID into lang.
// Recording the same newID twice is a no-op.
func (l *Ledger) RecordTranslation(ctx context.Context, originalID int64, kind model.EntityKind, lang string, newID int64) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", kind)
	}

	n, err := l.queries.CreateTranslation(ctx, store.CreateTranslationParams{
		EntityKind:   string(kind),
		OriginalID:   originalID,
		LanguageCode: lang,
		TranslatedID: newID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("recording %s %d translation into %s: %w", kind, originalID, lang, err)
	}
	if n > 0 {
		return nil
	}

	existing, ok, err := l.TranslatedID(ctx, originalID, kind, lang)
	if err != nil {
		return err
	}
	if ok && existing == newID {
		return nil
	}
	return fmt.Errorf("%w: %s %d into %s is recorded as %d, not %d",
		ErrLedgerConflict, kind, originalID, lang, existing, newID)
}

// TranslatedIDs returns the ids produced from originalID, one per language,
// in the order they were recorded.
func (l *Ledger) TranslatedIDs(ctx context.Context, originalID int64, kind model.EntityKind) ([]int64, error) {
	ids, err := l.queries.ListTranslatedIDs(ctx, store.ListTranslatedIDsParams{
		EntityKind: string(kind),
		OriginalID: originalID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s %d translations: %w", kind, originalID, err)
	}
	return ids, nil
}
