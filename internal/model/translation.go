// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// EntityKind identifies the kind of content recorded in the translation ledger.
type EntityKind string

// Entity kinds for translations
const (
	EntityKindBlog     EntityKind = "blog"
	EntityKindCategory EntityKind = "category"
)

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindBlog, EntityKindCategory:
		return true
	}
	return false
}

func (k EntityKind) String() string {
	return string(k)
}

// Translation represents a ledger entry linking an original entity to its
// translation in one language.
// For example, Blog 1 (Spanish) translated into Blog 7 (English) would be:
// Translation { Kind: "blog", OriginalID: 1, LanguageCode: "en", TranslatedID: 7 }
type Translation struct {
	ID           int64      `json:"id"`
	Kind         EntityKind `json:"entity_kind"`
	OriginalID   int64      `json:"original_id"`
	LanguageCode string     `json:"language_code"`
	TranslatedID int64      `json:"translated_id"`
	CreatedAt    time.Time  `json:"created_at"`
}
