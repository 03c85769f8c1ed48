// Package mail delivers invoice emails over SMTP. Invoices are sent as a
// short plain-text body with the rendered PDF attached.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// Mailer sends invoice emails through a plain SMTP endpoint such as
// Mailpit in development or a relay in production.
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger

	// send is swappable in tests.
	send func(addr, from string, to []string, msg []byte) error
}

// NewMailer builds a Mailer targeting host:port. Authentication is left to
// the relay; the local setup uses an unauthenticated Mailpit instance.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mailer{
		addr:   fmt.Sprintf("%s:%d", host, port),
		from:   from,
		logger: logger,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// SendInvoice emails the invoice to the client with the PDF attached.
func (m *Mailer) SendInvoice(ctx context.Context, inv *invoices.Invoice, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inv.ClientEmail == "" {
		return fmt.Errorf("mail: invoice %s has no client email", inv.InvoiceNumber)
	}

	subject := fmt.Sprintf("Invoice %s", inv.InvoiceNumber)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nPlease find attached invoice %s for %.2f %s, due %s.\r\n\r\nThank you for your business.\r\n",
		inv.ClientName, inv.InvoiceNumber, inv.Total, inv.Currency,
		inv.DueDate.Format("2 January 2006"),
	)
	attachment := fmt.Sprintf("%s.pdf", inv.InvoiceNumber)

	msg, err := buildMessage(m.from, inv.ClientEmail, subject, body, attachment, pdf)
	if err != nil {
		return fmt.Errorf("mail: build message: %w", err)
	}
	if err := m.send(m.addr, m.from, []string{inv.ClientEmail}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", inv.ClientEmail, err)
	}
	m.logger.Info("invoice email sent",
		slog.String("invoice", inv.InvoiceNumber),
		slog.String("to", inv.ClientEmail))
	return nil
}

// Send delivers a plain-text email, used for reminders and overdue notices.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	if err := m.send(m.addr, m.from, []string{to}, buf.Bytes()); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

// buildMessage assembles a multipart/mixed MIME message with a text part
// and a base64 PDF attachment.
func buildMessage(from, to, subject, body, filename string, pdf []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	if len(pdf) > 0 {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/pdf"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
		})
		if err != nil {
			return nil, err
		}
		enc := base64.NewEncoder(base64.StdEncoding, part)
		if _, err := enc.Write(pdf); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
