package approvals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// ErrNotFound indicates the approval row does not exist.
var ErrNotFound = errors.New("approvals: not found")

// Repository defines data access for approval rows plus the aggregate columns
// it maintains on the invoices table.
type Repository interface {
	CreateBatch(ctx context.Context, rows []Approval) error
	Get(ctx context.Context, id uuid.UUID) (*Approval, error)
	Update(ctx context.Context, row *Approval) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Approval, error)
	PendingFor(ctx context.Context, approverEmail string) ([]Approval, error)
	PendingForInvoice(ctx context.Context, invoiceID uuid.UUID, approverEmail string) (*Approval, error)

	SetInvoiceAggregate(ctx context.Context, invoiceID uuid.UUID, status invoices.ApprovalStatus, approvedBy *string, approvedAt *time.Time) error
	Stats(ctx context.Context) (Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const approvalColumns = `id, invoice_id, approver_email, status, comments, decided_at, created_at`

func scanApproval(row pgx.Row) (*Approval, error) {
	var a Approval
	var status string
	err := row.Scan(&a.ID, &a.InvoiceID, &a.ApproverEmail, &status, &a.Comments, &a.DecidedAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = Decision(status)
	return &a, nil
}

func (r *repository) CreateBatch(ctx context.Context, rows []Approval) error {
	const query = `
		INSERT INTO invoice_approvals (id, invoice_id, approver_email, status, comments, decided_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING created_at`
	for i := range rows {
		row := &rows[i]
		if err := r.pool.QueryRow(ctx, query,
			row.ID, row.InvoiceID, row.ApproverEmail, string(row.Status), row.Comments, row.DecidedAt,
		).Scan(&row.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Approval, error) {
	return scanApproval(r.pool.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM invoice_approvals WHERE id = $1`, id))
}

func (r *repository) Update(ctx context.Context, row *Approval) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoice_approvals SET status=$2, comments=$3, decided_at=$4 WHERE id=$1`,
		row.ID, string(row.Status), row.Comments, row.DecidedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Approval, error) {
	return r.queryApprovals(ctx,
		`SELECT `+approvalColumns+` FROM invoice_approvals WHERE invoice_id = $1 ORDER BY created_at ASC`,
		invoiceID)
}

func (r *repository) PendingFor(ctx context.Context, approverEmail string) ([]Approval, error) {
	return r.queryApprovals(ctx,
		`SELECT `+approvalColumns+` FROM invoice_approvals
		 WHERE approver_email = $1 AND status = 'pending' ORDER BY created_at ASC`,
		approverEmail)
}

func (r *repository) PendingForInvoice(ctx context.Context, invoiceID uuid.UUID, approverEmail string) (*Approval, error) {
	return scanApproval(r.pool.QueryRow(ctx,
		`SELECT `+approvalColumns+` FROM invoice_approvals
		 WHERE invoice_id = $1 AND approver_email = $2 AND status = 'pending'
		 ORDER BY created_at ASC LIMIT 1`,
		invoiceID, approverEmail))
}

func (r *repository) queryApprovals(ctx context.Context, query string, args ...interface{}) ([]Approval, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (r *repository) SetInvoiceAggregate(ctx context.Context, invoiceID uuid.UUID, status invoices.ApprovalStatus, approvedBy *string, approvedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET approval_status=$2, approved_by=$3, approved_at=$4, updated_at=NOW() WHERE id=$1`,
		invoiceID, string(status), approvedBy, approvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	const countQuery = `
		SELECT
			COUNT(*) FILTER (WHERE approval_status = 'pending'),
			COUNT(*) FILTER (WHERE approval_status = 'approved'),
			COUNT(*) FILTER (WHERE approval_status = 'rejected'),
			COUNT(*) FILTER (WHERE approval_status = 'revision_requested')
		FROM invoices`
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&s.Pending, &s.Approved, &s.Rejected, &s.RevisionRequested); err != nil {
		return Stats{}, err
	}

	const avgQuery = `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (decided_at - created_at)) / 3600), 0)
		FROM invoice_approvals
		WHERE status = 'approved' AND decided_at IS NOT NULL`
	if err := r.pool.QueryRow(ctx, avgQuery).Scan(&s.AverageApprovalHours); err != nil {
		return Stats{}, err
	}
	return s, nil
}
