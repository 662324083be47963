// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the v1 API on r. Callers add authentication and rate
// limiting middleware around it.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Get("/languages", h.Languages)
	r.Get("/events", h.Events)

	r.Route("/translations", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Post("/jobs", h.AddJobs)
		r.Get("/jobs/active", h.ActiveJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/process", h.StartProcessing)
		r.Post("/retry", h.RetryFailed)
		r.Post("/cleanup", h.Cleanup)
	})
}
