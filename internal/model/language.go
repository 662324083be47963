// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Language is a language the translation pipeline can target.
type Language struct {
	Code string `json:"code"` // ISO 639-1: en, es, de, fr
	Name string `json:"name"` // English, Spanish, German, French
}
