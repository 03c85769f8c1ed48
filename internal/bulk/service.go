package bulk

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// InvoiceOps is the slice of the invoice service the orchestrator drives.
type InvoiceOps interface {
	Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error)
	Send(ctx context.Context, id uuid.UUID) (*invoices.Invoice, error)
	RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// Service orchestrates batch invoice operations. Batches run synchronously to
// completion; per-item failures are collected and never abort the batch.
type Service struct {
	repo   Repository
	ops    InvoiceOps
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, ops InvoiceOps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ops: ops, logger: logger, now: time.Now}
}

// run executes one batch, persisting the record after every item so progress
// survives a crash mid-batch.
func (s *Service) run(ctx context.Context, opType OperationType, total int, step func(i int) error) (*Operation, error) {
	op := &Operation{
		ID:         uuid.New(),
		Type:       opType,
		Status:     OpPending,
		TotalItems: total,
	}
	if err := s.repo.Insert(ctx, op); err != nil {
		return nil, fmt.Errorf("create operation record: %w", err)
	}

	op.Status = OpProcessing
	if err := s.repo.Update(ctx, op); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if err := step(i); err != nil {
			op.FailedItems++
			op.Errors = append(op.Errors, fmt.Sprintf("item %d: %v", i+1, err))
		} else {
			op.ProcessedItems++
		}
		if err := s.repo.Update(ctx, op); err != nil {
			s.logger.Warn("persist batch progress", slog.Any("error", err), slog.String("operation", op.ID.String()))
		}
	}

	now := s.now()
	op.Status = OpCompleted
	op.CompletedAt = &now
	if err := s.repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("finalise operation record: %w", err)
	}
	if op.FailedItems > 0 {
		s.logger.Warn("bulk operation completed with failures",
			slog.String("type", string(opType)),
			slog.Int("processed", op.ProcessedItems), slog.Int("failed", op.FailedItems))
	}
	return op, nil
}

// fail marks the record failed after an operation-level error.
func (s *Service) fail(ctx context.Context, op *Operation, cause error) error {
	now := s.now()
	op.Status = OpFailed
	op.CompletedAt = &now
	op.Errors = append(op.Errors, cause.Error())
	if err := s.repo.Update(ctx, op); err != nil {
		s.logger.Error("mark operation failed", slog.Any("error", err))
	}
	return fmt.Errorf("bulk operation %s: %w", op.ID, cause)
}

// CreateInvoices creates one invoice per request.
func (s *Service) CreateInvoices(ctx context.Context, reqs []invoices.CreateInvoiceRequest) (*Operation, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no invoices to create", httpx.ErrValidation)
	}
	return s.run(ctx, OpCreateInvoices, len(reqs), func(i int) error {
		_, err := s.ops.Create(ctx, reqs[i])
		return err
	})
}

// SendInvoices sends each invoice in the batch.
func (s *Service) SendInvoices(ctx context.Context, ids []uuid.UUID) (*Operation, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no invoices to send", httpx.ErrValidation)
	}
	return s.run(ctx, OpSendInvoices, len(ids), func(i int) error {
		_, err := s.ops.Send(ctx, ids[i])
		return err
	})
}

// GeneratePDFs renders each invoice document, verifying renderability. The
// bytes are discarded; callers fetch individual documents from the invoice
// endpoint.
func (s *Service) GeneratePDFs(ctx context.Context, ids []uuid.UUID) (*Operation, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no invoices to render", httpx.ErrValidation)
	}
	return s.run(ctx, OpGeneratePDFs, len(ids), func(i int) error {
		_, err := s.ops.RenderPDF(ctx, ids[i])
		return err
	})
}

// csvHeader is the required import column order.
var csvHeader = []string{"client_name", "client_email", "client_address", "due_date", "tax_rate", "currency", "description", "quantity", "unit_price"}

// ImportCSV parses one invoice per row, each with a single line item, and
// creates them as a batch. A malformed file fails the whole operation; a bad
// field in one row fails only that row.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*Operation, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %s", httpx.ErrValidation, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: csv has no data rows", httpx.ErrValidation)
	}
	if len(records[0]) != len(csvHeader) {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", httpx.ErrValidation, len(csvHeader), len(records[0]))
	}

	rows := records[1:]
	return s.run(ctx, OpImportCSV, len(rows), func(i int) error {
		req, err := parseCSVRow(rows[i])
		if err != nil {
			return err
		}
		_, err = s.ops.Create(ctx, *req)
		return err
	})
}

func parseCSVRow(row []string) (*invoices.CreateInvoiceRequest, error) {
	if len(row) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}
	dueDate, err := time.Parse("2006-01-02", row[3])
	if err != nil {
		return nil, fmt.Errorf("invalid due_date %q", row[3])
	}
	taxRate, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tax_rate %q", row[4])
	}
	quantity, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", row[7])
	}
	unitPrice, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_price %q", row[8])
	}
	return &invoices.CreateInvoiceRequest{
		ClientName:    row[0],
		ClientEmail:   row[1],
		ClientAddress: row[2],
		DueDate:       dueDate,
		TaxRate:       &taxRate,
		Currency:      row[5],
		Items: []invoices.CreateItemRequest{
			{Description: row[6], Quantity: quantity, UnitPrice: unitPrice},
		},
	}, nil
}

// Get loads one operation record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Operation, error) {
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: bulk operation", httpx.ErrNotFound)
		}
		return nil, err
	}
	return op, nil
}

// List returns recent operation records.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Operation, error) {
	return s.repo.List(ctx, limit, offset)
}
