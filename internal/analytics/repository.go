package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries the rollups are built from.
type Repository interface {
	RevenueTotals(ctx context.Context, now time.Time) (RevenueTotalsRow, error)
	MonthlyRevenue(ctx context.Context, from time.Time) ([]MonthBucket, error)
	InvoiceCounts(ctx context.Context) (InvoiceCountsRow, error)
	ClientCounts(ctx context.Context, monthStart time.Time) (ClientCountsRow, error)
	TopClients(ctx context.Context, limit int) ([]TopClient, error)
	PaymentAggregates(ctx context.Context) (PaymentAggregatesRow, error)
	VATLines(ctx context.Context, from, to time.Time) ([]VATLine, error)
	CashPayments(ctx context.Context, from, to time.Time) ([]CashPaymentLine, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) RevenueTotals(ctx context.Context, now time.Time) (RevenueTotalsRow, error) {
	const query = `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'sent'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'overdue'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'paid' AND date_trunc('month', issue_date) = date_trunc('month', $1::timestamptz)), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'paid' AND date_trunc('year', issue_date) = date_trunc('year', $1::timestamptz)), 0)
		FROM invoices`
	var row RevenueTotalsRow
	err := r.pool.QueryRow(ctx, query, now).Scan(&row.Paid, &row.Pending, &row.Overdue, &row.ThisMonth, &row.ThisYear)
	return row, err
}

func (r *repository) MonthlyRevenue(ctx context.Context, from time.Time) ([]MonthBucket, error) {
	const query = `
		SELECT to_char(date_trunc('month', issue_date), 'YYYY-MM') AS month,
		       COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
		       COUNT(*)
		FROM invoices
		WHERE issue_date >= $1
		GROUP BY 1
		ORDER BY 1 ASC`
	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []MonthBucket
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Revenue, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *repository) InvoiceCounts(ctx context.Context) (InvoiceCountsRow, error) {
	row := InvoiceCountsRow{ByStatus: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM invoices GROUP BY status`)
	if err != nil {
		return row, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return row, err
		}
		row.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return row, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COALESCE(AVG(total), 0) FROM invoices`).Scan(&row.AverageValue)
	return row, err
}

func (r *repository) ClientCounts(ctx context.Context, monthStart time.Time) (ClientCountsRow, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM clients`
	var row ClientCountsRow
	err := r.pool.QueryRow(ctx, query, monthStart).Scan(&row.Total, &row.Active, &row.NewThisMonth)
	return row, err
}

func (r *repository) TopClients(ctx context.Context, limit int) ([]TopClient, error) {
	const query = `
		SELECT client_name, client_email, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE status != 'cancelled'
		GROUP BY client_name, client_email
		ORDER BY 4 DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []TopClient
	for rows.Next() {
		var tc TopClient
		if err := rows.Scan(&tc.ClientName, &tc.ClientEmail, &tc.InvoiceCount, &tc.TotalBilled); err != nil {
			return nil, err
		}
		list = append(list, tc)
	}
	return list, rows.Err()
}

func (r *repository) VATLines(ctx context.Context, from, to time.Time) ([]VATLine, error) {
	const query = `
		SELECT invoice_number, client_name, issue_date, subtotal, tax_rate, tax_amount, total, status, currency
		FROM invoices
		WHERE issue_date >= $1 AND issue_date <= $2 AND status != 'cancelled'
		ORDER BY issue_date ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []VATLine
	for rows.Next() {
		var l VATLine
		if err := rows.Scan(&l.InvoiceNumber, &l.ClientName, &l.IssueDate, &l.Subtotal, &l.TaxRate, &l.TaxAmount, &l.Total, &l.Status, &l.Currency); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) CashPayments(ctx context.Context, from, to time.Time) ([]CashPaymentLine, error) {
	const query = `
		SELECT p.id, p.invoice_id, i.invoice_number, i.client_name,
		       p.amount, p.payment_date, COALESCE(p.transaction_id, ''), COALESCE(p.notes, '')
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE p.payment_date >= $1 AND p.payment_date <= $2 AND p.payment_method = 'cash'
		ORDER BY p.payment_date ASC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CashPaymentLine
	for rows.Next() {
		var l CashPaymentLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.InvoiceNumber, &l.ClientName, &l.Amount, &l.PaymentDate, &l.TransactionID, &l.Notes); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) PaymentAggregates(ctx context.Context) (PaymentAggregatesRow, error) {
	row := PaymentAggregatesRow{ByMethod: make(map[string]float64)}

	const totalsQuery = `
		SELECT COUNT(*),
		       COALESCE(SUM(p.amount), 0),
		       COALESCE(AVG(EXTRACT(EPOCH FROM (p.payment_date - i.issue_date)) / 86400), 0)
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id`
	if err := r.pool.QueryRow(ctx, totalsQuery).Scan(&row.Count, &row.Total, &row.AverageDaysToPay); err != nil {
		return row, err
	}

	rows, err := r.pool.Query(ctx, `SELECT payment_method, COALESCE(SUM(amount), 0) FROM payments GROUP BY payment_method`)
	if err != nil {
		return row, err
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var amount float64
		if err := rows.Scan(&method, &amount); err != nil {
			return row, err
		}
		row.ByMethod[method] = amount
	}
	return row, rows.Err()
}
