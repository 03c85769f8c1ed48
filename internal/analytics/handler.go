package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages analytics endpoints.
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

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", h.dashboard)
		r.Get("/revenue", h.revenue)
		r.Get("/invoices", h.invoices)
		r.Get("/clients", h.clients)
		r.Get("/payments", h.payments)
		r.Get("/reports/vat", h.vatReport)
		r.Get("/reports/petty-cash", h.pettyCashReport)
	})
}

// reportPeriod parses the required start_date/end_date query parameters.
func reportPeriod(r *http.Request) (time.Time, time.Time, error) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date and end_date are required", httpx.ErrValidation)
	}
	from, err := time.Parse(reportDateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start_date %q", httpx.ErrValidation, start)
	}
	to, err := time.Parse(reportDateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end_date %q", httpx.ErrValidation, end)
	}
	return from, to, nil
}

func (h *Handler) vatReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportPeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.VATReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("build vat report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
			fmt.Sprintf("vat-report-%s-to-%s.csv", from.Format(reportDateLayout), to.Format(reportDateLayout))))
		if err := WriteVATCSV(w, report); err != nil {
			h.logger.Error("write vat csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) pettyCashReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportPeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.PettyCashReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("build petty cash report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
			fmt.Sprintf("petty-cash-report-%s-to-%s.csv", from.Format(reportDateLayout), to.Format(reportDateLayout))))
		if err := WritePettyCashCSV(w, report); err != nil {
			h.logger.Error("write petty cash csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Revenue(r.Context())
	if err != nil {
		h.logger.Error("load revenue stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Invoices(r.Context())
	if err != nil {
		h.logger.Error("load invoice stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) clients(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Clients(r.Context())
	if err != nil {
		h.logger.Error("load client stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Payments(r.Context())
	if err != nil {
		h.logger.Error("load payment stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
