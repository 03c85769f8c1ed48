package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/analytics"
	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/currency"
	"github.com/ledgerline/ledgerline/internal/invoices"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/notifications"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/jobs"
	"github.com/ledgerline/ledgerline/mail"
	"github.com/ledgerline/ledgerline/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	invoicesService.SetCacheInvalidator(analytics.NewService(
		analytics.NewRepository(pool),
		analytics.NewCache(redisClient, 10*time.Minute),
	))

	metrics := jobmetrics.NewMetrics(nil)

	overdueJob := jobs.NewOverdueSweepJob(invoicesService, logger, metrics)
	recurringJob := jobs.NewRecurringSweepJob(invoicesService, logger, metrics)
	reminderJob := jobs.NewReminderJob(notificationsService, invoicesService, mailer, logger, metrics)
	ratesJob := jobs.NewRatesRefreshJob(currencyService, cfg.BaseCurrency, logger, metrics)
	emailJob := jobs.NewSendEmailJob(mailer, logger, metrics)

	ratesTask, err := jobs.NewRatesRefreshTask(cfg.BaseCurrency)
	if err != nil {
		logger.Error("build rates task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: emailJob.Handle},
			{Type: jobs.TaskTypeOverdueSweep, Handler: overdueJob.Handle},
			{Type: jobs.TaskTypeRecurringSweep, Handler: recurringJob.Handle},
			{Type: jobs.TaskTypeReminders, Handler: reminderJob.Handle},
			{Type: jobs.TaskTypeRatesRefresh, Handler: ratesJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewOverdueSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: jobs.NewRecurringSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: jobs.NewRemindersTask()},
			{Spec: "0 */6 * * *", Task: ratesTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
