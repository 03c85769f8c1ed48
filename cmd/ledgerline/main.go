package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/analytics"
	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/approvals"
	"github.com/ledgerline/ledgerline/internal/bulk"
	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/currency"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/notifications"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/staff"
	"github.com/ledgerline/ledgerline/jobs"
	"github.com/ledgerline/ledgerline/mail"
	"github.com/ledgerline/ledgerline/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	clientsService := clients.NewService(clients.NewRepository(pool), logger)
	staffService := staff.NewService(staff.NewRepository(pool), logger)
	notificationsService := notifications.NewService(notifications.NewRepository(pool), logger)

	currencyService := currency.NewService(
		currency.NewRepository(pool),
		currency.NewAPIClient(cfg.RatesAPIURL),
		logger,
	)

	renderer := report.NewRenderer(report.NewClient(cfg.GotenbergURL), report.Company{
		Name:    cfg.CompanyName,
		Address: cfg.CompanyAddress,
		Email:   cfg.CompanyEmail,
	})
	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, logger)

	invoicesService := invoices.NewService(
		invoices.NewRepository(pool),
		mailer,
		renderer,
		currencyService,
		notificationsService,
		logger,
		invoices.Options{
			BaseCurrency:      cfg.BaseCurrency,
			DueDateOffsetDays: cfg.DueDateOffsetDays,
			DefaultTaxRate:    cfg.DefaultTaxRate,
			ReminderLeadDays:  cfg.ReminderLeadDays,
		},
	)

	approvalsService := approvals.NewService(
		approvals.NewRepository(pool),
		invoicesService,
		notificationsService,
		logger,
		approvals.Options{AutoApproveBelow: cfg.AutoApproveBelow},
	)

	bulkService := bulk.NewService(bulk.NewRepository(pool), invoicesService, logger)

	analyticsService := analytics.NewService(
		analytics.NewRepository(pool),
		analytics.NewCache(redisClient, 10*time.Minute),
	)
	invoicesService.SetCacheInvalidator(analyticsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		ClientsHandler:       clients.NewHandler(logger, clientsService),
		StaffHandler:         staff.NewHandler(logger, staffService),
		InvoicesHandler:      invoices.NewHandler(logger, invoicesService),
		ApprovalsHandler:     approvals.NewHandler(logger, approvalsService),
		BulkHandler:          bulk.NewHandler(logger, bulkService),
		CurrencyHandler:      currency.NewHandler(logger, currencyService, cfg.BaseCurrency),
		AnalyticsHandler:     analytics.NewHandler(logger, analyticsService),
		NotificationsHandler: notifications.NewHandler(logger, notificationsService),
		JobsHandler:          jobs.NewHandler(inspector, logger),
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
