package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/analytics"
	"github.com/ledgerline/ledgerline/internal/approvals"
	"github.com/ledgerline/ledgerline/internal/bulk"
	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/currency"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/notifications"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/staff"
	"github.com/ledgerline/ledgerline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ClientsHandler       *clients.Handler
	StaffHandler         *staff.Handler
	InvoicesHandler      *invoices.Handler
	ApprovalsHandler     *approvals.Handler
	BulkHandler          *bulk.Handler
	CurrencyHandler      *currency.Handler
	AnalyticsHandler     *analytics.Handler
	NotificationsHandler *notifications.Handler
	JobsHandler          *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Ledgerline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(api)
		}
		if params.StaffHandler != nil {
			params.StaffHandler.MountRoutes(api)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(api)
		}
		if params.ApprovalsHandler != nil {
			params.ApprovalsHandler.MountRoutes(api)
		}
		if params.BulkHandler != nil {
			params.BulkHandler.MountRoutes(api)
		}
		if params.CurrencyHandler != nil {
			params.CurrencyHandler.MountRoutes(api)
		}
		if params.AnalyticsHandler != nil {
			params.AnalyticsHandler.MountRoutes(api)
		}
		if params.NotificationsHandler != nil {
			params.NotificationsHandler.MountRoutes(api)
		}
		if params.JobsHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				params.JobsHandler.MountRoutes(jr)
			})
		}
	})

	return r
}
