package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages notification endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/{id}/sent", h.markSent)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invoiceParam := r.URL.Query().Get("invoice_id")
	if invoiceParam == "" {
		httpx.Error(w, http.StatusBadRequest, "invoice_id query parameter required")
		return
	}
	invoiceID, err := uuid.Parse(invoiceParam)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid invoice id")
		return
	}
	list, err := h.service.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *Handler) markSent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.service.MarkSent(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sent": true})
}
