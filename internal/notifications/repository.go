package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the notification does not exist.
var ErrNotFound = errors.New("notifications: not found")

// Repository defines data access for notifications.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Notification, error)
	ListDueUnsent(ctx context.Context, asOf time.Time) ([]Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const notificationColumns = `id, invoice_id, type, message, scheduled_for, sent_at, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.InvoiceID, &n.Type, &n.Message, &n.ScheduledFor, &n.SentAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *repository) Insert(ctx context.Context, n *Notification) error {
	const query = `
		INSERT INTO notifications (id, invoice_id, type, message, scheduled_for, sent_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		n.ID, n.InvoiceID, n.Type, n.Message, n.ScheduledFor, n.SentAt,
	).Scan(&n.CreatedAt)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return scanNotification(r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Notification, error) {
	return r.query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE invoice_id = $1 ORDER BY created_at DESC`,
		invoiceID)
}

func (r *repository) ListDueUnsent(ctx context.Context, asOf time.Time) ([]Notification, error) {
	return r.query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE sent_at IS NULL AND scheduled_for <= $1 ORDER BY scheduled_for ASC`,
		asOf)
}

func (r *repository) query(ctx context.Context, query string, args ...interface{}) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func (r *repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET sent_at=$2 WHERE id=$1`, id, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
