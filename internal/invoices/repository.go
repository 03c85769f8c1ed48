package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/money"
	"github.com/ledgerline/ledgerline/internal/platform/db"
)

// ErrNotFound indicates the invoice or payment does not exist.
var ErrNotFound = errors.New("invoices: not found")

// Repository defines data access for invoices, items and payments.
type Repository interface {
	Create(ctx context.Context, inv *Invoice, items []InvoiceItem) error
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	ReplaceContent(ctx context.Context, inv *Invoice, items []InvoiceItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error

	InsertPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
	ListAllPayments(ctx context.Context, limit, offset int) ([]Payment, error)

	ListRecurringDue(ctx context.Context, asOf time.Time) ([]Invoice, error)
	ListOverdueSent(ctx context.Context, asOf time.Time) ([]Invoice, error)
	SetNextRecurringDate(ctx context.Context, id uuid.UUID, next time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, invoice_number, client_name, client_email, client_address,
issue_date, due_date, subtotal, tax_rate, tax_amount, total,
currency, exchange_rate, status, approval_status,
is_recurring, recurring_interval, next_recurring_date,
notes, created_by, approved_by, approved_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status, approvalStatus string
	var interval *string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientEmail, &inv.ClientAddress,
		&inv.IssueDate, &inv.DueDate, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Total,
		&inv.Currency, &inv.ExchangeRate, &status, &approvalStatus,
		&inv.IsRecurring, &interval, &inv.NextRecurringDate,
		&inv.Notes, &inv.CreatedBy, &inv.ApprovedBy, &inv.ApprovedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.Status = Status(status)
	inv.ApprovalStatus = ApprovalStatus(approvalStatus)
	if interval != nil {
		iv := money.Interval(*interval)
		inv.RecurringInterval = &iv
	}
	return &inv, nil
}

func intervalString(iv *money.Interval) *string {
	if iv == nil {
		return nil
	}
	s := string(*iv)
	return &s
}

func (r *repository) Create(ctx context.Context, inv *Invoice, items []InvoiceItem) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO invoices (
				id, invoice_number, client_name, client_email, client_address,
				issue_date, due_date, subtotal, tax_rate, tax_amount, total,
				currency, exchange_rate, status, approval_status,
				is_recurring, recurring_interval, next_recurring_date,
				notes, created_by, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW(),NOW())
			RETURNING created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			inv.ID, inv.InvoiceNumber, inv.ClientName, inv.ClientEmail, inv.ClientAddress,
			inv.IssueDate, inv.DueDate, inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total,
			inv.Currency, inv.ExchangeRate, string(inv.Status), string(inv.ApprovalStatus),
			inv.IsRecurring, intervalString(inv.RecurringInterval), inv.NextRecurringDate,
			inv.Notes, inv.CreatedBy,
		).Scan(&inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for i := range items {
			if err := insertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		inv.Items = items
		return nil
	})
}

func insertItem(ctx context.Context, tx pgx.Tx, item *InvoiceItem) error {
	const query = `
		INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, total, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING created_at`
	if err := tx.QueryRow(ctx, query,
		item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total,
	).Scan(&item.CreatedAt); err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)
	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	payments, err := r.ListPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return inv, nil
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE invoice_number = $1`, invoiceColumns)
	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) loadItems(ctx context.Context, inv *Invoice) error {
	const query = `
		SELECT id, invoice_id, description, quantity, unit_price, total, created_at
		FROM invoice_items WHERE invoice_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Total, &item.CreatedAt); err != nil {
			return err
		}
		inv.Items = append(inv.Items, item)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientEmail != nil {
		conditions = append(conditions, fmt.Sprintf("client_email = $%d", argPos))
		args = append(args, *req.ClientEmail)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *inv)
	}
	return list, total, rows.Err()
}

func (r *repository) ReplaceContent(ctx context.Context, inv *Invoice, items []InvoiceItem) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			UPDATE invoices SET
				client_name=$2, client_email=$3, client_address=$4,
				issue_date=$5, due_date=$6, subtotal=$7, tax_rate=$8, tax_amount=$9, total=$10,
				is_recurring=$11, recurring_interval=$12, next_recurring_date=$13,
				notes=$14, updated_at=NOW()
			WHERE id=$1`
		tag, err := tx.Exec(ctx, query,
			inv.ID, inv.ClientName, inv.ClientEmail, inv.ClientAddress,
			inv.IssueDate, inv.DueDate, inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total,
			inv.IsRecurring, intervalString(inv.RecurringInterval), inv.NextRecurringDate,
			inv.Notes,
		)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if items != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id=$1`, inv.ID); err != nil {
				return fmt.Errorf("delete invoice items: %w", err)
			}
			for i := range items {
				if err := insertItem(ctx, tx, &items[i]); err != nil {
					return err
				}
			}
			inv.Items = items
		}
		return nil
	})
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	// invoice_items, payments and notifications cascade on delete.
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertPayment(ctx context.Context, p *Payment) error {
	const query = `
		INSERT INTO payments (id, invoice_id, amount, payment_date, payment_method, transaction_id, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		p.ID, p.InvoiceID, p.Amount, p.PaymentDate, p.PaymentMethod, p.TransactionID, p.Notes,
	).Scan(&p.CreatedAt)
}

func (r *repository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	const query = `
		SELECT id, invoice_id, amount, payment_date, payment_method, transaction_id, notes, created_at
		FROM payments WHERE invoice_id=$1 ORDER BY payment_date ASC`
	return r.queryPayments(ctx, query, invoiceID)
}

func (r *repository) ListAllPayments(ctx context.Context, limit, offset int) ([]Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, invoice_id, amount, payment_date, payment_method, transaction_id, notes, created_at
		FROM payments ORDER BY payment_date DESC LIMIT $1 OFFSET $2`
	return r.queryPayments(ctx, query, limit, offset)
}

func (r *repository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.TransactionID, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repository) ListRecurringDue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE is_recurring = TRUE AND next_recurring_date <= $1`, invoiceColumns)
	return r.queryInvoices(ctx, query, asOf)
}

func (r *repository) ListOverdueSent(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE status = 'sent' AND due_date <= $1`, invoiceColumns)
	return r.queryInvoices(ctx, query, asOf)
}

func (r *repository) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *inv)
	}
	return list, rows.Err()
}

func (r *repository) SetNextRecurringDate(ctx context.Context, id uuid.UUID, next time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET next_recurring_date=$2, updated_at=NOW() WHERE id=$1`, id, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
