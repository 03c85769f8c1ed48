package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOverdueSweepFlipsSentInvoices(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	req := createRequest()
	req.DueDate = base.AddDate(0, 0, 2)
	inv, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	// Not due yet.
	res, err := svc.RunOverdueSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)

	// Jump past the due date.
	svc.now = func() time.Time { return base.AddDate(0, 0, 5) }

	res, err = svc.RunOverdueSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Empty(t, res.Errors)

	stored, err := repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, stored.Status)

	var overdue []notification
	for _, n := range notifier.records {
		if n.typ == "overdue" {
			overdue = append(overdue, n)
		}
	}
	require.Len(t, overdue, 1)
	require.Equal(t, fmt.Sprintf("Invoice %s is 3 days overdue", inv.InvoiceNumber), overdue[0].message)
}

func TestOverdueSweepIsIdempotent(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest()
	req.DueDate = time.Now().AddDate(0, 0, 1)
	inv, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 3) }

	res, err := svc.RunOverdueSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)

	// Second run sees no sent invoices and records no further notifications.
	res, err = svc.RunOverdueSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)

	var overdue int
	for _, n := range notifier.records {
		if n.typ == "overdue" {
			overdue++
		}
	}
	require.Equal(t, 1, overdue)
}

func TestOverdueSweepSkipsDraftAndPaid(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	req := createRequest()
	req.DueDate = time.Now().AddDate(0, 0, 1)
	draft, err := svc.Create(ctx, req)
	require.NoError(t, err)

	paid, err := svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Send(ctx, paid.ID)
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, paid.ID, RecordPaymentRequest{
		Amount: 62.97, PaymentMethod: "cash", MarkPaid: true,
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 3) }

	res, err := svc.RunOverdueSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)

	stored, err := repo.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
	stored, err = repo.Get(ctx, paid.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, stored.Status)
}

func TestRecurringSweepSpawnsDraftCopy(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	interval := "monthly"
	req := createRequest()
	req.IsRecurring = true
	req.RecurringInterval = &interval
	tmpl, err := svc.Create(ctx, req)
	require.NoError(t, err)

	// Advance one month so the template is due.
	frozen := time.Now().AddDate(0, 1, 0)
	svc.now = func() time.Time { return frozen }

	res, err := svc.RunRecurringSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Empty(t, res.Errors)

	list, total, err := svc.List(ctx, ListInvoicesRequest{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	var clone *Invoice
	for i := range list {
		if list[i].ID != tmpl.ID {
			clone = &list[i]
		}
	}
	require.NotNil(t, clone)
	require.Equal(t, StatusDraft, clone.Status)
	require.Equal(t, tmpl.ClientName, clone.ClientName)
	require.Equal(t, tmpl.Total, clone.Total)
	require.Equal(t, frozen.AddDate(0, 0, 30), clone.DueDate)
	require.Regexp(t, `^`+tmpl.InvoiceNumber+`-R\d{4}$`, clone.InvoiceNumber)

	full, err := repo.Get(ctx, clone.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	require.Equal(t, tmpl.Items[0].Description, full.Items[0].Description)
	require.NotEqual(t, tmpl.Items[0].ID, full.Items[0].ID)

	// Template advanced to the next cycle.
	storedTmpl, err := repo.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, storedTmpl.NextRecurringDate)
	require.Equal(t, frozen.AddDate(0, 1, 0), *storedTmpl.NextRecurringDate)
}

func TestRecurringSweepDoesNotDoubleSpawn(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	interval := "monthly"
	req := createRequest()
	req.IsRecurring = true
	req.RecurringInterval = &interval
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	frozen := time.Now().AddDate(0, 1, 0)
	svc.now = func() time.Time { return frozen }

	res, err := svc.RunRecurringSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)

	res, err = svc.RunRecurringSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)

	_, total, err := svc.List(ctx, ListInvoicesRequest{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestRecurringSweepIgnoresNonDue(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	interval := "quarterly"
	req := createRequest()
	req.IsRecurring = true
	req.RecurringInterval = &interval
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	res, err := svc.RunRecurringSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)
}
