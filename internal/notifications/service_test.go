package notifications

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows map[uuid.UUID]*Notification
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]*Notification)}
}

func (r *memoryRepo) Insert(ctx context.Context, n *Notification) error {
	n.CreatedAt = time.Now()
	cp := *n
	r.rows[n.ID] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memoryRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Notification, error) {
	var list []Notification
	for _, n := range r.rows {
		if n.InvoiceID == invoiceID {
			list = append(list, *n)
		}
	}
	return list, nil
}

func (r *memoryRepo) ListDueUnsent(ctx context.Context, asOf time.Time) ([]Notification, error) {
	var list []Notification
	for _, n := range r.rows {
		if n.SentAt == nil && !n.ScheduledFor.After(asOf) {
			list = append(list, *n)
		}
	}
	return list, nil
}

func (r *memoryRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	n, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	n.SentAt = &sentAt
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return NewService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestScheduleReminderLeadTime(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	due := base.AddDate(0, 0, 10)
	n, err := svc.ScheduleReminder(context.Background(), uuid.New(), "INV-202604-0001", due, 3)
	require.NoError(t, err)
	require.Equal(t, TypeReminder, n.Type)
	require.Equal(t, due.AddDate(0, 0, -3), n.ScheduledFor)
	require.Contains(t, n.Message, "INV-202604-0001")
}

func TestScheduleReminderPastLeadClampsToNow(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// Due tomorrow with a 3 day lead would land in the past.
	n, err := svc.ScheduleReminder(context.Background(), uuid.New(), "INV-202604-0002", base.AddDate(0, 0, 1), 3)
	require.NoError(t, err)
	require.Equal(t, base, n.ScheduledFor)
}

func TestDueUnsentAndMarkSent(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	invoiceID := uuid.New()
	require.NoError(t, svc.Record(ctx, invoiceID, TypeOverdue, "Invoice X is 2 days overdue", base.AddDate(0, 0, -1)))
	require.NoError(t, svc.Record(ctx, invoiceID, TypeReminder, "future reminder", base.AddDate(0, 0, 5)))

	due, err := svc.DueUnsent(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, TypeOverdue, due[0].Type)

	require.NoError(t, svc.MarkSent(ctx, due[0].ID))
	due, err = svc.DueUnsent(ctx)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestListByInvoice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, svc.Record(ctx, a, TypePaymentReceived, "payment", time.Now()))
	require.NoError(t, svc.Record(ctx, b, TypeOverdue, "overdue", time.Now()))

	list, err := svc.ListByInvoice(ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, TypePaymentReceived, list[0].Type)
}
