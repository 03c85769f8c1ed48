package invoices

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers invoice, payment and sweep routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/cancel", h.cancel)
		r.Get("/{id}/pdf", h.pdf)
		r.Post("/{id}/payments", h.createPayment)
		r.Get("/{id}/payments", h.listInvoicePayments)
	})
	r.Get("/payments", h.listPayments)
	r.Route("/sweeps", func(r chi.Router) {
		r.Post("/overdue", h.overdueSweep)
		r.Post("/recurring", h.recurringSweep)
	})
}
