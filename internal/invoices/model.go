package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/money"
)

// Status enumerates the invoice lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// ApprovalStatus is the aggregate approval state derived from the
// per-approver decision rows. It is independent of the lifecycle Status.
type ApprovalStatus string

const (
	ApprovalPending           ApprovalStatus = "pending"
	ApprovalApproved          ApprovalStatus = "approved"
	ApprovalRejected          ApprovalStatus = "rejected"
	ApprovalRevisionRequested ApprovalStatus = "revision_requested"
)

// canTransition encodes the lifecycle state machine:
// draft -> sent -> paid | overdue -> (paid | cancelled), with cancelled
// reachable from any non-paid state. Nothing leaves paid or cancelled.
func canTransition(from, to Status) bool {
	switch to {
	case StatusSent:
		return from == StatusDraft
	case StatusPaid:
		return from == StatusSent || from == StatusOverdue
	case StatusOverdue:
		return from == StatusSent
	case StatusCancelled:
		return from != StatusPaid && from != StatusCancelled
	}
	return false
}

// Invoice is a billing record. Client fields are a denormalised snapshot
// taken at creation time, not a live reference: renaming a client never
// rewrites past invoices.
type Invoice struct {
	ID            uuid.UUID `json:"id" db:"id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"`

	ClientName    string `json:"client_name" db:"client_name"`
	ClientEmail   string `json:"client_email" db:"client_email"`
	ClientAddress string `json:"client_address" db:"client_address"`

	IssueDate time.Time `json:"issue_date" db:"issue_date"`
	DueDate   time.Time `json:"due_date" db:"due_date"`

	Subtotal  float64 `json:"subtotal" db:"subtotal"`
	TaxRate   float64 `json:"tax_rate" db:"tax_rate"`
	TaxAmount float64 `json:"tax_amount" db:"tax_amount"`
	Total     float64 `json:"total" db:"total"`

	Currency     string  `json:"currency" db:"currency"`
	ExchangeRate float64 `json:"exchange_rate" db:"exchange_rate"`

	Status         Status         `json:"status" db:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`

	IsRecurring       bool            `json:"is_recurring" db:"is_recurring"`
	RecurringInterval *money.Interval `json:"recurring_interval,omitempty" db:"recurring_interval"`
	NextRecurringDate *time.Time      `json:"next_recurring_date,omitempty" db:"next_recurring_date"`

	Notes *string `json:"notes,omitempty" db:"notes"`

	CreatedBy  *string    `json:"created_by,omitempty" db:"created_by"`
	ApprovedBy *string    `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	Items    []InvoiceItem `json:"items,omitempty" db:"-"`
	Payments []Payment     `json:"payments,omitempty" db:"-"`
}

// InvoiceItem is a line item owned by exactly one invoice and
// cascade-deleted with it.
type InvoiceItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id" db:"invoice_id"`
	Description string    `json:"description" db:"description"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Total       float64   `json:"total" db:"total"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Payment records money received against an invoice. Multiple payments may
// exist per invoice; the paid status is asserted by the caller, never derived
// from the payment sum.
type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	InvoiceID     uuid.UUID `json:"invoice_id" db:"invoice_id"`
	Amount        float64   `json:"amount" db:"amount"`
	PaymentDate   time.Time `json:"payment_date" db:"payment_date"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	TransactionID *string   `json:"transaction_id,omitempty" db:"transaction_id"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
