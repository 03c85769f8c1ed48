package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/money"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Sender delivers an invoice email with an optional PDF attachment.
// Failures are logged and never abort the send transition.
type Sender interface {
	SendInvoice(ctx context.Context, inv *Invoice, pdf []byte) error
}

// PDFRenderer renders an invoice document. The service treats the bytes as
// opaque.
type PDFRenderer interface {
	RenderInvoice(ctx context.Context, inv *Invoice) ([]byte, error)
}

// RateSource resolves an exchange rate between two currency codes.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Notifier records a notification row against an invoice.
type Notifier interface {
	Record(ctx context.Context, invoiceID uuid.UUID, typ, message string, scheduledFor time.Time) error
}

// CacheInvalidator drops derived rollups after an invoice write. Satisfied
// by the analytics service.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Options carries the configuration the invoice workflows need.
type Options struct {
	BaseCurrency      string
	DueDateOffsetDays int

	// DefaultTaxRate applies when a create request leaves the tax rate unset.
	DefaultTaxRate float64

	// ReminderLeadDays is how many days before the due date the payment
	// reminder is scheduled when an invoice is sent.
	ReminderLeadDays int
}

// Service handles invoice business logic.
type Service struct {
	repo        Repository
	sender      Sender
	renderer    PDFRenderer
	rates       RateSource
	notifier    Notifier
	invalidator CacheInvalidator
	logger      *slog.Logger
	opts        Options
	validate    *validator.Validate
	now         func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, sender Sender, renderer PDFRenderer, rates RateSource, notifier Notifier, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.DueDateOffsetDays <= 0 {
		opts.DueDateOffsetDays = 30
	}
	if opts.ReminderLeadDays <= 0 {
		opts.ReminderLeadDays = 3
	}
	return &Service{
		repo:     repo,
		sender:   sender,
		renderer: renderer,
		rates:    rates,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

// SetCacheInvalidator wires the analytics cache bump into the write paths.
// Optional; a nil invalidator leaves staleness bounded by the cache TTL.
func (s *Service) SetCacheInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

// bumpCaches invalidates derived rollups after a successful write. Failures
// are logged; the write has already committed.
func (s *Service) bumpCaches(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate analytics cache", slog.Any("error", err))
	}
}

func buildItems(invoiceID uuid.UUID, reqs []CreateItemRequest) ([]InvoiceItem, float64) {
	items := make([]InvoiceItem, 0, len(reqs))
	totals := make([]float64, 0, len(reqs))
	for _, ir := range reqs {
		total := money.ItemTotal(ir.Quantity, ir.UnitPrice)
		items = append(items, InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoiceID,
			Description: ir.Description,
			Quantity:    ir.Quantity,
			UnitPrice:   ir.UnitPrice,
			Total:       total,
		})
		totals = append(totals, total)
	}
	return items, money.Subtotal(totals)
}

// Create persists a new draft invoice with its items, computing all totals
// server-side.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	var interval *money.Interval
	if req.IsRecurring {
		if req.RecurringInterval == nil {
			return nil, fmt.Errorf("%w: recurring interval required", httpx.ErrValidation)
		}
		iv, err := money.ParseInterval(*req.RecurringInterval)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		interval = &iv
	}

	now := s.now()
	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	if req.DueDate.Before(issueDate) {
		return nil, fmt.Errorf("%w: due date before issue date", httpx.ErrValidation)
	}

	number := req.InvoiceNumber
	if number == "" {
		number = money.GenerateInvoiceNumber(now)
	}

	taxRate := s.opts.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	id := uuid.New()
	items, subtotal := buildItems(id, req.Items)
	taxAmount := money.TaxAmount(subtotal, taxRate)
	total := money.Total(subtotal, taxAmount)

	rate := 1.0
	if s.rates != nil && req.Currency != s.opts.BaseCurrency {
		fetched, err := s.rates.Rate(ctx, req.Currency, s.opts.BaseCurrency)
		if err != nil {
			s.logger.Warn("exchange rate lookup failed, defaulting to 1",
				slog.String("currency", req.Currency), slog.Any("error", err))
		} else {
			rate = fetched
		}
	}

	inv := &Invoice{
		ID:             id,
		InvoiceNumber:  number,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientAddress:  req.ClientAddress,
		IssueDate:      issueDate,
		DueDate:        req.DueDate,
		Subtotal:       subtotal,
		TaxRate:        taxRate,
		TaxAmount:      taxAmount,
		Total:          total,
		Currency:       req.Currency,
		ExchangeRate:   rate,
		Status:         StatusDraft,
		ApprovalStatus: ApprovalPending,
		IsRecurring:    req.IsRecurring,
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
	}
	if interval != nil {
		inv.RecurringInterval = interval
		next := money.NextRecurringDate(issueDate, *interval)
		inv.NextRecurringDate = &next
	}

	if err := s.repo.Create(ctx, inv, items); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.bumpCaches(ctx)
	return inv, nil
}

// Get loads one invoice with its items and payments.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return inv, nil
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

// Update edits a draft invoice. Totals are always recomputed from the item
// set so stored amounts cannot drift from the items.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be edited", httpx.ErrConflict)
	}

	if req.ClientName != nil {
		inv.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		inv.ClientEmail = *req.ClientEmail
	}
	if req.ClientAddress != nil {
		inv.ClientAddress = *req.ClientAddress
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}
	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}
	if req.Notes != nil {
		inv.Notes = req.Notes
	}
	if req.IsRecurring != nil {
		inv.IsRecurring = *req.IsRecurring
		if !inv.IsRecurring {
			inv.RecurringInterval = nil
			inv.NextRecurringDate = nil
		}
	}
	if req.RecurringInterval != nil {
		iv, err := money.ParseInterval(*req.RecurringInterval)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		inv.RecurringInterval = &iv
		next := money.NextRecurringDate(inv.IssueDate, iv)
		inv.NextRecurringDate = &next
	}
	if inv.IsRecurring && inv.RecurringInterval == nil {
		return nil, fmt.Errorf("%w: recurring interval required", httpx.ErrValidation)
	}

	var items []InvoiceItem
	if req.Items != nil {
		var subtotal float64
		items, subtotal = buildItems(inv.ID, *req.Items)
		inv.Subtotal = subtotal
	} else {
		totals := make([]float64, 0, len(inv.Items))
		for _, item := range inv.Items {
			totals = append(totals, item.Total)
		}
		inv.Subtotal = money.Subtotal(totals)
	}
	inv.TaxAmount = money.TaxAmount(inv.Subtotal, inv.TaxRate)
	inv.Total = money.Total(inv.Subtotal, inv.TaxAmount)

	if err := s.repo.ReplaceContent(ctx, inv, items); err != nil {
		return nil, wrapNotFound(err)
	}
	s.bumpCaches(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes an invoice and, by cascade, its items and payments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := wrapNotFound(s.repo.Delete(ctx, id)); err != nil {
		return err
	}
	s.bumpCaches(ctx)
	return nil
}

// Send transitions a draft invoice to sent and dispatches the invoice email.
// Render or delivery failures are logged and do not block the transition.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !canTransition(inv.Status, StatusSent) {
		return nil, fmt.Errorf("%w: cannot send %s invoice", httpx.ErrConflict, inv.Status)
	}

	var pdf []byte
	if s.renderer != nil {
		pdf, err = s.renderer.RenderInvoice(ctx, inv)
		if err != nil {
			s.logger.Error("render invoice pdf", slog.String("invoice", inv.InvoiceNumber), slog.Any("error", err))
			pdf = nil
		}
	}
	if s.sender != nil {
		if err := s.sender.SendInvoice(ctx, inv, pdf); err != nil {
			s.logger.Error("send invoice email", slog.String("invoice", inv.InvoiceNumber), slog.Any("error", err))
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusSent); err != nil {
		return nil, wrapNotFound(err)
	}
	inv.Status = StatusSent

	if s.notifier != nil {
		scheduledFor := inv.DueDate.AddDate(0, 0, -s.opts.ReminderLeadDays)
		if now := s.now(); scheduledFor.Before(now) {
			scheduledFor = now
		}
		msg := fmt.Sprintf("Invoice %s is due on %s", inv.InvoiceNumber, inv.DueDate.Format("2006-01-02"))
		if err := s.notifier.Record(ctx, id, "reminder", msg, scheduledFor); err != nil {
			s.logger.Error("schedule payment reminder", slog.Any("error", err))
		}
	}

	s.bumpCaches(ctx)
	return inv, nil
}

// Cancel terminates an invoice. Paid invoices cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !canTransition(inv.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel %s invoice", httpx.ErrConflict, inv.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, wrapNotFound(err)
	}
	inv.Status = StatusCancelled
	s.bumpCaches(ctx)
	return inv, nil
}

// RecordPayment inserts a payment row. When the caller asserts mark_paid the
// invoice transitions to paid; the payment sum is never reconciled against
// the total.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if req.MarkPaid && !canTransition(inv.Status, StatusPaid) {
		return nil, fmt.Errorf("%w: cannot mark %s invoice paid", httpx.ErrConflict, inv.Status)
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	p := &Payment{
		ID:            uuid.New(),
		InvoiceID:     invoiceID,
		Amount:        money.Round2(req.Amount),
		PaymentDate:   paymentDate,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if err := s.repo.InsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if req.MarkPaid {
		if err := s.repo.UpdateStatus(ctx, invoiceID, StatusPaid); err != nil {
			return nil, wrapNotFound(err)
		}
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Payment of %.2f %s received for invoice %s", p.Amount, inv.Currency, inv.InvoiceNumber)
		if err := s.notifier.Record(ctx, invoiceID, "payment_received", msg, s.now()); err != nil {
			s.logger.Error("record payment notification", slog.Any("error", err))
		}
	}
	s.bumpCaches(ctx)
	return p, nil
}

// Payments returns the payments recorded against one invoice.
func (s *Service) Payments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID)
}

// AllPayments returns recent payments across all invoices.
func (s *Service) AllPayments(ctx context.Context, limit, offset int) ([]Payment, error) {
	return s.repo.ListAllPayments(ctx, limit, offset)
}

// RenderPDF renders the invoice document for download.
func (s *Service) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("invoices: pdf renderer not configured")
	}
	return s.renderer.RenderInvoice(ctx, inv)
}

func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	}
	return err
}
