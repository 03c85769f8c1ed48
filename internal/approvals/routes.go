package approvals

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers approval workflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/approvals", func(r chi.Router) {
		r.Post("/submit", h.submit)
		r.Post("/{id}/decision", h.decide)
		r.Post("/bulk", h.bulkApprove)
		r.Get("/pending", h.pending)
		r.Get("/invoice/{invoiceID}", h.history)
		r.Get("/stats", h.stats)
	})
}
