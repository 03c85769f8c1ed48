package currency

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Handler manages currency endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	baseCurrency string
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, baseCurrency string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, baseCurrency: baseCurrency}
}

// MountRoutes registers currency routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/currency", func(r chi.Router) {
		r.Get("/rates", h.rates)
		r.Get("/supported", h.supported)
		r.Get("/convert", h.convert)
		r.Post("/refresh", h.refresh)
	})
}

func (h *Handler) rates(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.CachedRates(r.Context())
	if err != nil {
		h.logger.Error("list cached rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rates": list})
}

func (h *Handler) supported(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"currencies": Supported})
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		httpx.Error(w, http.StatusBadRequest, "from and to query parameters required")
		return
	}

	converted, err := h.service.Convert(r.Context(), amount, from, to)
	if err != nil {
		h.logger.Error("convert amount", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
		"formatted": h.service.Format(converted, to),
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.service.RefreshAll(r.Context(), h.baseCurrency)
	if err != nil {
		h.logger.Error("refresh rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"refreshed": refreshed})
}
