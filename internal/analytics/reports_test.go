package analytics

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func reportRange() (time.Time, time.Time) {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func TestVATReportSummariesLines(t *testing.T) {
	repo := &mockRepo{
		vat: []VATLine{
			{InvoiceNumber: "INV-202601-0001", ClientName: "Acme Corp", IssueDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Subtotal: 100, TaxRate: 20, TaxAmount: 20, Total: 120, Status: "paid", Currency: "USD"},
			{InvoiceNumber: "INV-202602-0002", ClientName: "Beta Ltd", IssueDate: time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC), Subtotal: 59.97, TaxRate: 5, TaxAmount: 3, Total: 62.97, Status: "sent", Currency: "USD"},
		},
	}
	svc := newTestService(t, repo)

	from, to := reportRange()
	report, err := svc.VATReport(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, report.Lines, 2)
	require.Equal(t, 159.97, report.TotalSales)
	require.Equal(t, 23.0, report.TotalVAT)
	require.Equal(t, 182.97, report.TotalWithVAT)
	require.Equal(t, from, report.Period.From)
	require.Equal(t, to, report.Period.To)
}

func TestVATReportEmptyPeriod(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	from, to := reportRange()
	report, err := svc.VATReport(context.Background(), from, to)
	require.NoError(t, err)
	require.Empty(t, report.Lines)
	require.Zero(t, report.TotalSales)
	require.Zero(t, report.TotalVAT)
}

func TestWriteVATCSV(t *testing.T) {
	report := VATReport{
		Lines: []VATLine{
			{InvoiceNumber: "INV-202601-0001", ClientName: "Acme, Corp", IssueDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Subtotal: 100, TaxRate: 20, TaxAmount: 20, Total: 120, Status: "paid", Currency: "USD"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVATCSV(&buf, report))

	out := buf.String()
	require.Contains(t, out, "Invoice Number,Client Name,Date,Subtotal,VAT Rate,VAT Amount,Total,Status,Currency")
	require.Contains(t, out, `INV-202601-0001,"Acme, Corp",2026-01-10,100.00,20.00%,20.00,120.00,paid,USD`)
}

func TestPettyCashReportSummariesLines(t *testing.T) {
	repo := &mockRepo{
		cash: []CashPaymentLine{
			{ID: uuid.New(), InvoiceID: uuid.New(), InvoiceNumber: "INV-202601-0001", ClientName: "Acme Corp", Amount: 50.25, PaymentDate: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
			{ID: uuid.New(), InvoiceID: uuid.New(), InvoiceNumber: "INV-202602-0002", ClientName: "Beta Ltd", Amount: 12.50, PaymentDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), Notes: "partial"},
		},
	}
	svc := newTestService(t, repo)

	from, to := reportRange()
	report, err := svc.PettyCashReport(context.Background(), from, to)
	require.NoError(t, err)

	require.Equal(t, 2, report.TransactionCount)
	require.Equal(t, 62.75, report.TotalCash)
}

func TestWritePettyCashCSV(t *testing.T) {
	report := PettyCashReport{
		Lines: []CashPaymentLine{
			{InvoiceNumber: "INV-202601-0001", ClientName: "Acme Corp", Amount: 50.25, PaymentDate: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), TransactionID: "tx-9", Notes: "till float"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePettyCashCSV(&buf, report))

	out := buf.String()
	require.Contains(t, out, "Date,Invoice Number,Client,Amount,Transaction ID,Notes")
	require.Contains(t, out, "2026-01-20,INV-202601-0001,Acme Corp,50.25,tx-9,till float")
}
