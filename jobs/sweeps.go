package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/invoices"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
)

// OverdueSweepJob flips past-due sent invoices to overdue.
type OverdueSweepJob struct {
	Invoices *invoices.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewOverdueSweepJob wires dependencies for the overdue sweep handler.
func NewOverdueSweepJob(svc *invoices.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{Invoices: svc, Logger: logger, Metrics: metrics}
}

// Handle processes overdue sweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Invoices == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeOverdueSweep)
	result, err := j.Invoices.RunOverdueSweep(ctx)
	if err != nil {
		j.logger().Error("overdue sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("overdue sweep complete",
		slog.Int("processed", result.Processed),
		slog.Int("errors", len(result.Errors)))
	for _, msg := range result.Errors {
		j.logger().Warn("overdue sweep item", slog.String("detail", msg))
	}
	return tracker.End(nil)
}

func (j *OverdueSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// RecurringSweepJob spawns drafts from recurring templates that are due.
type RecurringSweepJob struct {
	Invoices *invoices.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewRecurringSweepJob wires dependencies for the recurring sweep handler.
func NewRecurringSweepJob(svc *invoices.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecurringSweepJob {
	return &RecurringSweepJob{Invoices: svc, Logger: logger, Metrics: metrics}
}

// Handle processes recurring sweep tasks.
func (j *RecurringSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Invoices == nil {
		return errors.New("recurring sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeRecurringSweep)
	result, err := j.Invoices.RunRecurringSweep(ctx)
	if err != nil {
		j.logger().Error("recurring sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("recurring sweep complete",
		slog.Int("spawned", result.Processed),
		slog.Int("errors", len(result.Errors)))
	for _, msg := range result.Errors {
		j.logger().Warn("recurring sweep item", slog.String("detail", msg))
	}
	return tracker.End(nil)
}

func (j *RecurringSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
