package mail

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

func testInvoice() *invoices.Invoice {
	return &invoices.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-202603-0001",
		ClientName:    "Acme Corp",
		ClientEmail:   "billing@acme.test",
		DueDate:       time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Total:         62.97,
		Currency:      "USD",
	}
}

func TestSendInvoiceBuildsMultipartMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewMailer("127.0.0.1", 1025, "invoices@ledgerline.local", slog.New(slog.DiscardHandler))
	m.send = func(addr, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.SendInvoice(context.Background(), testInvoice(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:1025", gotAddr)
	require.Equal(t, "invoices@ledgerline.local", gotFrom)
	require.Equal(t, []string{"billing@acme.test"}, gotTo)

	body := string(gotMsg)
	require.Contains(t, body, "Subject: Invoice INV-202603-0001")
	require.Contains(t, body, "multipart/mixed")
	require.Contains(t, body, "62.97 USD")
	require.Contains(t, body, "10 April 2026")
	require.Contains(t, body, `attachment; filename="INV-202603-0001.pdf"`)
	require.Contains(t, body, "application/pdf")
}

func TestSendPlainText(t *testing.T) {
	var gotTo []string
	var gotMsg []byte

	m := NewMailer("127.0.0.1", 1025, "invoices@ledgerline.local", nil)
	m.send = func(addr, from string, to []string, msg []byte) error {
		gotTo, gotMsg = to, msg
		return nil
	}

	err := m.Send(context.Background(), "billing@acme.test", "Reminder", "Invoice INV-202603-0001 is due soon.")
	require.NoError(t, err)
	require.Equal(t, []string{"billing@acme.test"}, gotTo)
	require.Contains(t, string(gotMsg), "Subject: Reminder")
	require.Contains(t, string(gotMsg), "due soon")
}

func TestSendInvoiceRequiresClientEmail(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "invoices@ledgerline.local", nil)
	inv := testInvoice()
	inv.ClientEmail = ""

	err := m.SendInvoice(context.Background(), inv, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no client email")
}

func TestSendInvoicePropagatesSMTPError(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "invoices@ledgerline.local", nil)
	m.send = func(addr, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendInvoice(context.Background(), testInvoice(), []byte("pdf"))
	require.ErrorContains(t, err, "connection refused")
}

func TestSendInvoiceHonoursContext(t *testing.T) {
	m := NewMailer("127.0.0.1", 1025, "invoices@ledgerline.local", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendInvoice(ctx, testInvoice(), nil)
	require.ErrorIs(t, err, context.Canceled)
}
