// Package notifications records reminder, overdue and payment messages
// against invoices. Rows are informational; delivery is best effort and no
// guarantee is tracked beyond the sent timestamp.
package notifications

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeReminder        = "reminder"
	TypeOverdue         = "overdue"
	TypePaymentReceived = "payment_received"
	TypeApprovalRequest = "approval_request"
)

// Notification is one scheduled or sent message for an invoice.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	InvoiceID    uuid.UUID  `json:"invoice_id"`
	Type         string     `json:"type"`
	Message      string     `json:"message"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
