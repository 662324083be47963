// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/ocms-translate/internal/model"
	"github.com/olegiv/ocms-translate/internal/translate"
)

// LanguageResponse describes one translation target.
type LanguageResponse struct {
	model.Language
	Registered bool `json:"registered"` // known to the CMS languages table
}

// Languages handles GET /api/v1/languages. It lists every language jobs can
// target, with names from the CMS languages table where registered.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListLanguages(r.Context())
	if err != nil {
		h.writeQueueError(w, r, "list languages", err)
		return
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[translate.Normalize(row.Code)] = row.Name
	}

	codes := translate.TargetLanguages()
	out := make([]LanguageResponse, 0, len(codes))
	for _, code := range codes {
		name, registered := names[code]
		if !registered {
			name = displayName(code)
		}
		out = append(out, LanguageResponse{
			Language:   model.Language{Code: code, Name: name},
			Registered: registered,
		})
	}
	WriteSuccess(w, out)
}

// displayName returns the English name of code, or code itself.
func displayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
