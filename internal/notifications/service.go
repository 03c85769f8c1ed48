package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Service handles notification rows. It satisfies the Notifier interface the
// invoice and approval services depend on.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record inserts one notification row.
func (s *Service) Record(ctx context.Context, invoiceID uuid.UUID, typ, message string, scheduledFor time.Time) error {
	n := &Notification{
		ID:           uuid.New(),
		InvoiceID:    invoiceID,
		Type:         typ,
		Message:      message,
		ScheduledFor: scheduledFor,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ScheduleReminder books a payment reminder a number of days ahead of the due
// date. A lead time that has already passed schedules the reminder for now.
func (s *Service) ScheduleReminder(ctx context.Context, invoiceID uuid.UUID, invoiceNumber string, dueDate time.Time, leadDays int) (*Notification, error) {
	scheduledFor := dueDate.AddDate(0, 0, -leadDays)
	if now := s.now(); scheduledFor.Before(now) {
		scheduledFor = now
	}
	n := &Notification{
		ID:           uuid.New(),
		InvoiceID:    invoiceID,
		Type:         TypeReminder,
		Message:      fmt.Sprintf("Invoice %s is due on %s", invoiceNumber, dueDate.Format("2006-01-02")),
		ScheduledFor: scheduledFor,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return n, nil
}

// ListByInvoice returns an invoice's notifications, newest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Notification, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// DueUnsent returns notifications whose scheduled time has arrived and which
// have not been dispatched yet.
func (s *Service) DueUnsent(ctx context.Context) ([]Notification, error) {
	return s.repo.ListDueUnsent(ctx, s.now())
}

// MarkSent stamps a notification as dispatched.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID) error {
	err := s.repo.MarkSent(ctx, id, s.now())
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: notification", httpx.ErrNotFound)
	}
	return err
}
