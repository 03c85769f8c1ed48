package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/invoices"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/notifications"
)

// ReminderJob emails notifications whose scheduled time has passed and marks
// them sent. Per-notification failures never stop the run; the row stays
// unsent and is retried on the next tick.
type ReminderJob struct {
	Notifications *notifications.Service
	Invoices      *invoices.Service
	Sender        TextSender
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
}

// NewReminderJob wires dependencies for the reminder delivery handler.
func NewReminderJob(n *notifications.Service, inv *invoices.Service, sender TextSender, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderJob {
	return &ReminderJob{Notifications: n, Invoices: inv, Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle processes reminder delivery tasks.
func (j *ReminderJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Notifications == nil || j.Invoices == nil || j.Sender == nil {
		return errors.New("reminders: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeReminders)

	due, err := j.Notifications.DueUnsent(ctx)
	if err != nil {
		j.logger().Error("list due notifications", slog.Any("error", err))
		return tracker.End(err)
	}

	sent := 0
	for _, note := range due {
		if err := j.deliver(ctx, note); err != nil {
			j.logger().Warn("deliver notification",
				slog.String("notification", note.ID.String()),
				slog.String("type", note.Type),
				slog.Any("error", err))
			continue
		}
		sent++
	}
	j.logger().Info("reminder run complete", slog.Int("due", len(due)), slog.Int("sent", sent))
	return tracker.End(nil)
}

func (j *ReminderJob) deliver(ctx context.Context, note notifications.Notification) error {
	// Only reminders and overdue notices go to the client. Other rows are
	// in-app records without an email recipient of their own.
	if note.Type == notifications.TypeReminder || note.Type == notifications.TypeOverdue {
		inv, err := j.Invoices.Get(ctx, note.InvoiceID)
		if err != nil {
			return fmt.Errorf("load invoice: %w", err)
		}
		if err := j.Sender.Send(ctx, inv.ClientEmail, subjectFor(note.Type, inv.InvoiceNumber), note.Message); err != nil {
			return err
		}
	}
	return j.Notifications.MarkSent(ctx, note.ID)
}

func subjectFor(typ, number string) string {
	if typ == notifications.TypeOverdue {
		return fmt.Sprintf("Overdue notice: invoice %s", number)
	}
	return fmt.Sprintf("Payment reminder: invoice %s", number)
}

func (j *ReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
