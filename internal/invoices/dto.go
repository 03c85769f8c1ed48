package invoices

import "time"

type CreateItemRequest struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`

	ClientName    string `json:"client_name" validate:"required"`
	ClientEmail   string `json:"client_email" validate:"required,email"`
	ClientAddress string `json:"client_address"`

	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date" validate:"required"`

	// TaxRate falls back to the configured default when omitted.
	TaxRate  *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Currency string   `json:"currency" validate:"required,len=3"`

	IsRecurring       bool    `json:"is_recurring"`
	RecurringInterval *string `json:"recurring_interval,omitempty"`

	Notes     *string `json:"notes,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`

	Items []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	ClientName    *string    `json:"client_name,omitempty"`
	ClientEmail   *string    `json:"client_email,omitempty" validate:"omitempty,email"`
	ClientAddress *string    `json:"client_address,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	TaxRate       *float64   `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes         *string    `json:"notes,omitempty"`

	IsRecurring       *bool   `json:"is_recurring,omitempty"`
	RecurringInterval *string `json:"recurring_interval,omitempty"`

	Items *[]CreateItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListInvoicesRequest struct {
	Status      *Status    `json:"status,omitempty"`
	ClientEmail *string    `json:"client_email,omitempty"`
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Limit       int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset      int        `json:"offset" validate:"gte=0"`
}

type RecordPaymentRequest struct {
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Notes         *string   `json:"notes,omitempty"`

	// MarkPaid asserts the payment settles the invoice. The service never
	// reconciles the payment sum against the total itself.
	MarkPaid bool `json:"mark_paid"`
}

// SweepResult summarises one overdue or recurring sweep run.
type SweepResult struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors,omitempty"`
}
