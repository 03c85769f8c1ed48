package invoices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/money"
)

// RunOverdueSweep flips every sent invoice whose due date has passed to
// overdue and records one overdue notification per invoice. Re-running the
// sweep is a no-op once the status has left sent. Per-invoice failures are
// collected and never stop the sweep.
func (s *Service) RunOverdueSweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	due, err := s.repo.ListOverdueSent(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list overdue invoices: %w", err)
	}

	var result SweepResult
	for _, inv := range due {
		if err := s.repo.UpdateStatus(ctx, inv.ID, StatusOverdue); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invoice %s: %v", inv.InvoiceNumber, err))
			continue
		}
		if s.notifier != nil {
			days := money.DaysOverdue(inv.DueDate, now)
			msg := fmt.Sprintf("Invoice %s is %d days overdue", inv.InvoiceNumber, days)
			if err := s.notifier.Record(ctx, inv.ID, "overdue", msg, now); err != nil {
				s.logger.Error("record overdue notification",
					slog.String("invoice", inv.InvoiceNumber), slog.Any("error", err))
			}
		}
		result.Processed++
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("overdue sweep finished with errors",
			slog.Int("processed", result.Processed), slog.Int("errors", len(result.Errors)))
	}
	if result.Processed > 0 {
		s.bumpCaches(ctx)
	}
	return result, nil
}

// RunRecurringSweep spawns a successor draft invoice for every recurring
// template whose next recurrence date has arrived, then advances the
// template's next date past today so the same run cannot double-spawn.
func (s *Service) RunRecurringSweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	templates, err := s.repo.ListRecurringDue(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list recurring invoices: %w", err)
	}

	var result SweepResult
	for _, tmpl := range templates {
		if tmpl.RecurringInterval == nil {
			continue
		}
		if err := s.spawnRecurring(ctx, tmpl.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invoice %s: %v", tmpl.InvoiceNumber, err))
			continue
		}
		result.Processed++
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("recurring sweep finished with errors",
			slog.Int("processed", result.Processed), slog.Int("errors", len(result.Errors)))
	}
	if result.Processed > 0 {
		s.bumpCaches(ctx)
	}
	return result, nil
}

func (s *Service) spawnRecurring(ctx context.Context, templateID uuid.UUID) error {
	// Reload with items so the successor carries the full line item set.
	tmpl, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return err
	}
	interval := *tmpl.RecurringInterval

	now := s.now()
	next := money.NextRecurringDate(now, interval)

	clone := &Invoice{
		ID:                uuid.New(),
		InvoiceNumber:     money.RecurringNumber(tmpl.InvoiceNumber, now),
		ClientName:        tmpl.ClientName,
		ClientEmail:       tmpl.ClientEmail,
		ClientAddress:     tmpl.ClientAddress,
		IssueDate:         now,
		DueDate:           now.AddDate(0, 0, s.opts.DueDateOffsetDays),
		Subtotal:          tmpl.Subtotal,
		TaxRate:           tmpl.TaxRate,
		TaxAmount:         tmpl.TaxAmount,
		Total:             tmpl.Total,
		Currency:          tmpl.Currency,
		ExchangeRate:      tmpl.ExchangeRate,
		Status:            StatusDraft,
		ApprovalStatus:    ApprovalPending,
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: &next,
		Notes:             tmpl.Notes,
		CreatedBy:         tmpl.CreatedBy,
	}

	items := make([]InvoiceItem, 0, len(tmpl.Items))
	for _, item := range tmpl.Items {
		items = append(items, InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   clone.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}

	if err := s.repo.Create(ctx, clone, items); err != nil {
		return fmt.Errorf("spawn invoice: %w", err)
	}

	// Advance the template date regardless of the clone's own schedule; the
	// template drives future spawns, the clone is an independent invoice.
	if err := s.repo.SetNextRecurringDate(ctx, tmpl.ID, money.NextRecurringDate(now, interval)); err != nil {
		return fmt.Errorf("advance template date: %w", err)
	}
	return nil
}
