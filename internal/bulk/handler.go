package bulk

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages bulk operation endpoints.
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

// MountRoutes registers bulk operation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bulk-operations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/create", h.createInvoices)
		r.Post("/send", h.sendInvoices)
		r.Post("/pdf", h.generatePDFs)
		r.Post("/import", h.importCSV)
	})
}

type createBatchRequest struct {
	Invoices []invoices.CreateInvoiceRequest `json:"invoices"`
}

type idBatchRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
}

func (h *Handler) createInvoices(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := h.service.CreateInvoices(r.Context(), req.Invoices)
	if err != nil {
		h.logger.Error("bulk create invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, op)
}

func (h *Handler) sendInvoices(w http.ResponseWriter, r *http.Request) {
	var req idBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := h.service.SendInvoices(r.Context(), req.InvoiceIDs)
	if err != nil {
		h.logger.Error("bulk send invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, op)
}

func (h *Handler) generatePDFs(w http.ResponseWriter, r *http.Request) {
	var req idBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := h.service.GeneratePDFs(r.Context(), req.InvoiceIDs)
	if err != nil {
		h.logger.Error("bulk generate pdfs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, op)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	op, err := h.service.ImportCSV(r.Context(), r.Body)
	if err != nil {
		h.logger.Error("import csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, op)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid operation id")
		return
	}
	op, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, op)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	list, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list bulk operations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"operations": list})
}
