// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Event listing limits
const (
	DefaultEventsLimit = 50
	MaxEventsLimit     = 500
)

// EventResponse is one persisted warning or error.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Events handles GET /api/v1/events. It lists the most recent warnings and
// errors recorded by the event log, newest first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "Invalid limit", map[string]string{"limit": "Must be a positive integer"})
			return
		}
		limit = min(n, MaxEventsLimit)
	}

	rows, err := h.queries.ListRecentEvents(r.Context(), int64(limit))
	if err != nil {
		h.writeQueueError(w, r, "list events", err)
		return
	}

	out := make([]EventResponse, 0, len(rows))
	for _, row := range rows {
		ev := EventResponse{
			ID:        row.ID,
			Level:     row.Level,
			Category:  row.Category,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		}
		if json.Valid([]byte(row.Metadata)) {
			ev.Metadata = json.RawMessage(row.Metadata)
		}
		out = append(out, ev)
	}
	WriteSuccess(w, out)
}
