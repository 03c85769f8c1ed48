package approvals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// InvoiceReader is the slice of the invoice store this engine needs.
type InvoiceReader interface {
	Get(ctx context.Context, id uuid.UUID) (*invoices.Invoice, error)
}

// Options carries the workflow configuration.
type Options struct {
	// AutoApproveBelow skips the workflow for invoices whose total is below
	// this amount. Zero disables auto approval.
	AutoApproveBelow float64
}

// Service implements the approval workflow engine.
type Service struct {
	repo     Repository
	store    InvoiceReader
	notifier invoices.Notifier
	logger   *slog.Logger
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, store InvoiceReader, notifier invoices.Notifier, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		store:    store,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Submit opens the workflow for one invoice. When the invoice total falls
// below the auto-approve threshold the workflow is skipped entirely and a
// single synthetic system approval is recorded instead. Otherwise one pending
// row is created per approver and each approver gets a notification.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) ([]Approval, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	inv, err := s.store.Get(ctx, req.InvoiceID)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	if applied, row, err := s.autoApprove(ctx, inv); err != nil {
		return nil, err
	} else if applied {
		return []Approval{*row}, nil
	}

	rows := make([]Approval, 0, len(req.Approvers))
	for _, approver := range req.Approvers {
		rows = append(rows, Approval{
			ID:            uuid.New(),
			InvoiceID:     inv.ID,
			ApproverEmail: approver,
			Status:        DecisionPending,
		})
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("create approval rows: %w", err)
	}
	if err := s.repo.SetInvoiceAggregate(ctx, inv.ID, invoices.ApprovalPending, nil, nil); err != nil {
		return nil, wrapNotFound(err)
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Invoice %s submitted for approval", inv.InvoiceNumber)
		if req.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, req.Message)
		}
		for _, approver := range req.Approvers {
			if err := s.notifier.Record(ctx, inv.ID, "approval_request", fmt.Sprintf("%s (approver: %s)", msg, approver), s.now()); err != nil {
				s.logger.Error("record approval notification", slog.Any("error", err))
			}
		}
	}
	return rows, nil
}

// AutoApprove applies the below-threshold shortcut to one invoice. It reports
// whether the shortcut applied.
func (s *Service) AutoApprove(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	inv, err := s.store.Get(ctx, invoiceID)
	if err != nil {
		return false, wrapNotFound(err)
	}
	applied, _, err := s.autoApprove(ctx, inv)
	return applied, err
}

func (s *Service) autoApprove(ctx context.Context, inv *invoices.Invoice) (bool, *Approval, error) {
	if s.opts.AutoApproveBelow <= 0 || inv.Total >= s.opts.AutoApproveBelow {
		return false, nil, nil
	}

	now := s.now()
	comment := fmt.Sprintf("Auto-approved: total below %.2f", s.opts.AutoApproveBelow)
	row := Approval{
		ID:            uuid.New(),
		InvoiceID:     inv.ID,
		ApproverEmail: SystemApprover,
		Status:        DecisionApproved,
		Comments:      &comment,
		DecidedAt:     &now,
	}
	if err := s.repo.CreateBatch(ctx, []Approval{row}); err != nil {
		return false, nil, fmt.Errorf("create auto approval: %w", err)
	}
	system := SystemApprover
	if err := s.repo.SetInvoiceAggregate(ctx, inv.ID, invoices.ApprovalApproved, &system, &now); err != nil {
		return false, nil, wrapNotFound(err)
	}
	return true, &row, nil
}

// RecordDecision applies one approver's decision, then recomputes the invoice
// aggregate from every approval row the invoice has. The reduction runs fresh
// on each decision.
func (s *Service) RecordDecision(ctx context.Context, approvalID uuid.UUID, req DecisionRequest) (*DecisionOutcome, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if !ValidDecision(req.Decision) {
		return nil, fmt.Errorf("%w: invalid decision %q", httpx.ErrValidation, req.Decision)
	}

	row, err := s.repo.Get(ctx, approvalID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if row.Status != DecisionPending {
		return nil, fmt.Errorf("%w: decision already recorded", httpx.ErrConflict)
	}

	return s.decide(ctx, row, req.Decision, req.Comments)
}

func (s *Service) decide(ctx context.Context, row *Approval, decision Decision, comments *string) (*DecisionOutcome, error) {
	now := s.now()
	row.Status = decision
	row.Comments = comments
	row.DecidedAt = &now
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, wrapNotFound(err)
	}

	rows, err := s.repo.ListByInvoice(ctx, row.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	aggregate := Reduce(rows)

	var approvedBy *string
	var approvedAt *time.Time
	if aggregate == invoices.ApprovalApproved {
		approvedBy = &row.ApproverEmail
		approvedAt = &now
	}
	if err := s.repo.SetInvoiceAggregate(ctx, row.InvoiceID, aggregate, approvedBy, approvedAt); err != nil {
		return nil, wrapNotFound(err)
	}

	return &DecisionOutcome{
		Approval:        *row,
		InvoiceID:       row.InvoiceID,
		AggregateStatus: string(aggregate),
	}, nil
}

// BulkApprove records an approval on each invoice's pending row for one
// approver. Per-invoice failures are collected and never stop the batch.
func (s *Service) BulkApprove(ctx context.Context, req BulkApproveRequest) (BulkApproveResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return BulkApproveResult{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	var result BulkApproveResult
	for _, invoiceID := range req.InvoiceIDs {
		row, err := s.repo.PendingForInvoice(ctx, invoiceID, req.ApproverEmail)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invoice %s: %v", invoiceID, err))
			continue
		}
		if _, err := s.decide(ctx, row, DecisionApproved, req.Comments); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invoice %s: %v", invoiceID, err))
			continue
		}
		result.Approved++
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("bulk approve finished with errors",
			slog.Int("approved", result.Approved), slog.Int("errors", len(result.Errors)))
	}
	return result, nil
}

// PendingFor lists one approver's open approval requests.
func (s *Service) PendingFor(ctx context.Context, approverEmail string) ([]Approval, error) {
	return s.repo.PendingFor(ctx, approverEmail)
}

// History lists every approval row recorded against one invoice.
func (s *Service) History(ctx context.Context, invoiceID uuid.UUID) ([]Approval, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// Stats returns the approval workload summary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, invoices.ErrNotFound) {
		return fmt.Errorf("%w: approval", httpx.ErrNotFound)
	}
	return err
}
